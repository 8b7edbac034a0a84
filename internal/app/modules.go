package app

import (
	"github.com/vk/draftgrid/internal/llm"
	"github.com/vk/draftgrid/internal/registry"
	"github.com/vk/draftgrid/modules/llmsection"
	"github.com/vk/draftgrid/modules/static"
)

// coreModules is the definitive list of agent modules compiled into the
// draftgrid binary. The llm_section agent is only available when an LLM
// endpoint is configured.
func coreModules(client *llm.Client) []registry.Module {
	modules := []registry.Module{
		&static.Module{},
	}
	if client != nil {
		modules = append(modules, &llmsection.Module{Client: client})
	}
	return modules
}
