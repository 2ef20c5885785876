package submission

import (
	"io"
	"os"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

const defaultContentType = "application/octet-stream"

var removeFileFunc = os.Remove // mockable

// StagedFile is an uploaded file written to local disk, waiting to be stored.
type StagedFile struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64

	once       sync.Once
	releaseErr error
}

// StageUpload copies `r` into a new temp file under `dir`.
// The content type is sniffed from the file when the client did not send a usable one.
// The returned file must be released by the caller.
func StageUpload(dir, filename, contentType string, r io.Reader) (*StagedFile, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating upload dir")
	}
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating temp file")
	}

	staged := &StagedFile{Path: tmp.Name(), Filename: filename, ContentType: contentType}
	size, err := io.Copy(tmp, r)
	if cErr := tmp.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		_ = staged.Release()
		return nil, errors.Wrap(err, "writing temp file")
	}
	staged.Size = size

	if staged.ContentType == "" || staged.ContentType == defaultContentType {
		if mtype, err := mimetype.DetectFile(staged.Path); err == nil {
			staged.ContentType = mtype.String()
		} else {
			staged.ContentType = defaultContentType
		}
	}
	return staged, nil
}

// Release removes the staged file. Only the first call removes it; later calls return its result.
func (s *StagedFile) Release() error {
	s.once.Do(func() {
		if err := removeFileFunc(s.Path); err != nil && !os.IsNotExist(err) {
			s.releaseErr = errors.Wrapf(err, "removing staged file %s", s.Path)
		}
	})
	return s.releaseErr
}
