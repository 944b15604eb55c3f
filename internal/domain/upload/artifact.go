package upload

import (
	"os"
	"sync"

	"github.com/Blindtools/Api/internal/domain/capability"
)

// Artifact is one validated inbound image. It is owned exclusively by the
// request that created it; handlers defer Release so the backing temp file
// is removed on every exit path.
type Artifact struct {
	Bytes    []byte
	Filename string
	Mime     string
	Format   string
	Size     int64

	tempPath    string
	releaseOnce sync.Once
}

// Path reports the temp file backing this artifact, empty when the payload
// only ever lived in memory.
func (a *Artifact) Path() string {
	return a.tempPath
}

// Release deletes the temp file and drops the buffer. Safe to call more
// than once; only the first call performs the deletion.
func (a *Artifact) Release() {
	a.releaseOnce.Do(func() {
		if a.tempPath != "" {
			_ = os.Remove(a.tempPath)
		}
		a.Bytes = nil
	})
}

// Image converts the artifact into the normalized request payload form.
func (a *Artifact) Image() capability.Image {
	return capability.Image{Bytes: a.Bytes, Format: a.Format}
}

// ReleaseAll releases every artifact in the slice.
func ReleaseAll(artifacts []*Artifact) {
	for _, a := range artifacts {
		if a != nil {
			a.Release()
		}
	}
}
