package pkg

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

type extractor func(f *os.File, bar *progressbar.ProgressBar, dest string, strip int) error

// Extract unpacks the archive in f below dest, stripping the given number of
// leading path elements from every entry. The format is picked by the suffix
// of name (.zip, .tar.gz, .tar.bz2, .tar.xz, .tar.br).
func Extract(f *os.File, name, dest string, strip int, bar *progressbar.ProgressBar) error {
	handler, err := extractorFor(name)
	if err != nil {
		return err
	}

	return handler(f, bar, dest, strip)
}

func extractorFor(name string) (extractor, error) {
	switch {
	case strings.HasSuffix(name, ".zip"):
		return extractZip, nil
	case strings.HasSuffix(name, ".tar.gz"):
		return func(f *os.File, bar *progressbar.ProgressBar, dest string, strip int) error {
			reader, err := gzip.NewReader(f)
			if err != nil {
				return eris.Wrap(err, "failed to open gzip stream")
			}
			defer reader.Close()

			return extractTar(reader, f, bar, dest, strip)
		}, nil
	case strings.HasSuffix(name, ".tar.bz2"):
		return func(f *os.File, bar *progressbar.ProgressBar, dest string, strip int) error {
			return extractTar(bzip2.NewReader(f), f, bar, dest, strip)
		}, nil
	case strings.HasSuffix(name, ".tar.xz"):
		return func(f *os.File, bar *progressbar.ProgressBar, dest string, strip int) error {
			reader, err := xz.NewReader(f)
			if err != nil {
				return eris.Wrap(err, "failed to open xz stream")
			}

			return extractTar(reader, f, bar, dest, strip)
		}, nil
	case strings.HasSuffix(name, ".tar.br"):
		return func(f *os.File, bar *progressbar.ProgressBar, dest string, strip int) error {
			return extractTar(brotli.NewReader(f), f, bar, dest, strip)
		}, nil
	default:
		return nil, eris.Errorf("archive format of %s not supported", name)
	}
}

// stripDest maps an archive entry name to its destination path. A nil handle
// with no error means the entry resolves to the destination root itself and
// should be skipped.
func stripDest(destRoot, item string, strip int) (*os.File, string, error) {
	parts := strings.Split(filepath.Clean(filepath.FromSlash(item)), string(filepath.Separator))
	if len(parts) <= strip {
		return nil, "", nil
	}

	dest := filepath.Join(destRoot, strings.Join(parts[strip:], string(filepath.Separator)))
	if dest == destRoot {
		return nil, "", nil
	}

	err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0770))
	if err != nil {
		return nil, "", eris.Wrapf(err, "failed to create directory %s", filepath.Dir(dest))
	}

	handle, err := os.Create(dest)
	if err != nil {
		return nil, "", eris.Wrapf(err, "failed to create file %s", dest)
	}

	return handle, dest, nil
}

func extractZip(f *os.File, bar *progressbar.ProgressBar, dest string, strip int) error {
	stat, err := f.Stat()
	if err != nil {
		return eris.Wrap(err, "failed to stat archive")
	}

	archive, err := zip.NewReader(f, stat.Size())
	if err != nil {
		return eris.Wrap(err, "failed to open zip archive")
	}

	for _, item := range archive.File {
		if strings.HasSuffix(item.Name, "/") {
			continue
		}

		destHandle, destPath, err := stripDest(dest, item.Name, strip)
		if err != nil {
			return err
		}
		if destHandle == nil {
			continue
		}

		itemHandle, err := item.Open()
		if err != nil {
			destHandle.Close()
			return eris.Wrapf(err, "failed to open archive entry %s", item.Name)
		}

		_, err = io.Copy(destHandle, itemHandle)
		itemHandle.Close()
		destHandle.Close()
		if err != nil {
			return eris.Wrapf(err, "failed to write extracted file %s", destPath)
		}

		if pos, sErr := f.Seek(0, io.SeekCurrent); sErr == nil {
			bar.Set64(pos)
		}
	}

	return nil
}

func extractTar(r io.Reader, f *os.File, bar *progressbar.ProgressBar, dest string, strip int) error {
	archive := tar.NewReader(r)

	for {
		item, err := archive.Next()
		if err != nil {
			if err == io.EOF {
				break
			}

			return eris.Wrap(err, "failed to read archive entry")
		}

		fi := item.FileInfo()
		if fi.IsDir() {
			continue
		}

		destHandle, destPath, err := stripDest(dest, item.Name, strip)
		if err != nil {
			return err
		}
		if destHandle == nil {
			continue
		}

		if item.Typeflag == tar.TypeSymlink {
			destHandle.Close()
			err := os.Remove(destPath)
			if err != nil {
				return eris.Wrapf(err, "failed to remove placeholder file %s", destPath)
			}

			err = os.Symlink(item.Linkname, destPath)
			if err != nil {
				return eris.Wrapf(err, "failed to create symlink %s pointing to %s", destPath, item.Linkname)
			}
			continue
		}

		_, err = io.Copy(destHandle, archive)
		destHandle.Close()
		if err != nil {
			return eris.Wrapf(err, "failed to write extracted file %s", destPath)
		}

		os.Chmod(destPath, fi.Mode())

		if pos, sErr := f.Seek(0, io.SeekCurrent); sErr == nil {
			bar.Set64(pos)
		}
	}

	return nil
}
