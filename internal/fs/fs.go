package fs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedragon/go-photofix/internal/models"

	"github.com/natefinch/atomic"
	"lukechampine.com/blake3"
)

const (
	CR2  = ".cr2"
	JPG  = ".jpg"
	JPEG = ".jpeg"
	MOV  = ".mov"
	MP4  = ".mp4"
)

var (
	ImageTypes = []string{CR2, JPG, JPEG}
	VideoTypes = []string{MOV, MP4}

	ErrDestinationExists = errors.New("destination already exists")
)

type CollisionPolicy string

const (
	// Skip leaves the source untouched when its destination is taken.
	Skip CollisionPolicy = "skip"
	// Suffix looks for the first free "<name>_N<ext>" destination.
	Suffix CollisionPolicy = "suffix"
)

func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(s)); p {
	case Skip, Suffix:
		return p, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (expected %q or %q)", s, Skip, Suffix)
	}
}

func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Hash returns the hex-encoded blake3 digest of the file at path.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Walk lazily emits every non-hidden file under root whose extension (case-insensitive)
// is one of fileTypes. Subdirectories are only visited when recursive is true; hidden
// ones never are. Errors on single entries are emitted with Err set and the walk goes on;
// an error on root itself is emitted last. A symlinked root is followed. Cancelling ctx
// stops the walk.
func Walk(ctx context.Context, root string, recursive bool, fileTypes []string) <-chan models.MediaFile {
	media := make(chan models.MediaFile)

	go func() {
		defer close(media)

		typesMap := make(map[string]bool)
		for _, t := range fileTypes {
			typesMap[strings.ToLower(t)] = true
		}

		send := func(m models.MediaFile) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case media <- m:
				return nil
			}
		}

		// WalkDir does not follow a symlinked root: walk its target, emit paths under root
		walkRoot := root
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			walkRoot = resolved
		}
		rebase := func(path string) string {
			rel, err := filepath.Rel(walkRoot, path)
			if err != nil {
				return path
			}
			return filepath.Join(root, rel)
		}

		err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d == nil || path == walkRoot {
					return err
				}

				if err := send(models.MediaFile{Path: rebase(path), Err: err}); err != nil {
					return err
				}
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path == walkRoot {
					return nil
				}
				if !recursive || IsHidden(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if IsHidden(d.Name()) {
				return nil
			}

			ext := filepath.Ext(d.Name())
			if !typesMap[strings.ToLower(ext)] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return send(models.MediaFile{Path: rebase(path), Err: err})
			}

			return send(models.MediaFile{
				Path:      rebase(path),
				Ext:       ext,
				CreatedAt: createdAt(info),
			})
		})

		if err != nil && ctx.Err() == nil {
			_ = send(models.MediaFile{Path: root, Err: err})
		}
	}()

	return media
}

// Resolve returns the path src should be renamed to in order to end up at dst
// without overwriting anything.
func Resolve(src, dst string, policy CollisionPolicy) (string, error) {
	if src == dst {
		return dst, nil
	}

	taken, err := exists(dst)
	if err != nil {
		return "", err
	}
	if !taken {
		return dst, nil
	}

	if policy != Suffix {
		return "", fmt.Errorf("%v: %w", dst, ErrDestinationExists)
	}

	dir := filepath.Dir(dst)
	ext := filepath.Ext(dst)
	stem := strings.TrimSuffix(filepath.Base(dst), ext)

	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if candidate == src {
			return candidate, nil
		}

		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// Rename moves src to dst following policy and returns the final destination.
func Rename(src, dst string, policy CollisionPolicy) (string, error) {
	target, err := Resolve(src, dst, policy)
	if err != nil {
		return "", err
	}
	if target == src {
		return target, nil
	}

	if err := atomic.ReplaceFile(src, target); err != nil {
		return "", fmt.Errorf("unable to rename %v to %v: %w", src, target, err)
	}

	return target, nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
