package protocol

import "github.com/rpggio/docket/internal/domain/item"

// Channel names. Each display surface owns one channel: the global list
// view and the per-workspace projects view.
const (
	ChannelGlobal   = "global"
	ChannelProjects = "projects"
)

// Channels returns every known channel name.
func Channels() []string {
	return []string{ChannelGlobal, ChannelProjects}
}

// ChannelFor maps a bucket to the channel of the surface that renders it.
func ChannelFor(target item.Target) string {
	if target.Scope == item.ScopeWorkspace {
		return ChannelProjects
	}
	return ChannelGlobal
}
