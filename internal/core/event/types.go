package event

import (
	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/core/ecs"
)

// FileChanged is emitted for every watcher event drained in a frame.
type FileChanged struct {
	Event asset.FileEvent
}

// AssetReloaded is emitted after an asset was updated in place.
type AssetReloaded struct {
	Type     asset.TypeID
	Ref      ecs.Ref
	Resource string
}

// EntityDestroyed is emitted for each entity removed by the cleanup flush.
type EntityDestroyed struct {
	Entity ecs.Entity
}
