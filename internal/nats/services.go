package nats

import (
	"github.com/zhulik/pal"

	"instafeed/internal/core"
)

func Provide() pal.ServiceDef {
	return pal.ProvideList(
		pal.Provide(&NATS{}),
		pal.Provide[core.DocumentStore](&Store{}),
	)
}
