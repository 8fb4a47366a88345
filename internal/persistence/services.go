package persistence

import (
	"github.com/zhulik/pal"

	"instafeed/internal/core"
)

func Provide() pal.ServiceDef {
	return pal.ProvideList(
		pal.Provide(&DB{}),
		pal.Provide[core.DocumentStore](&Store{}),
	)
}
