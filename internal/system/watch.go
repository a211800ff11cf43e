package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/core/event"
	coresys "github.com/feacur/customengine/internal/core/system"
)

// WatchSystem drains the file watcher once per frame and emits a
// FileChanged event for each change.
type WatchSystem struct {
	watcher asset.Watcher
	bus     *event.Bus
	log     *zap.Logger
}

func NewWatchSystem(watcher asset.Watcher, bus *event.Bus, log *zap.Logger) *WatchSystem {
	return &WatchSystem{watcher: watcher, bus: bus, log: log}
}

func (s *WatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *WatchSystem) Update(_ time.Duration) {
	for _, ev := range s.watcher.Drain() {
		s.log.Debug("file changed", zap.String("resource", ev.Name), zap.Stringer("action", ev.Action))
		event.Emit(s.bus, event.FileChanged{Event: ev})
	}
}

// SubscribeHotReload routes FileChanged events into the asset store and
// announces every in-place update as AssetReloaded.
func SubscribeHotReload(bus *event.Bus, store *asset.Store) {
	event.Subscribe(bus, func(ev event.FileChanged) {
		for _, r := range store.HandleEvent(ev.Event) {
			event.Emit(bus, event.AssetReloaded{Type: r.Type, Ref: r.Ref, Resource: r.Resource})
		}
	})
}
