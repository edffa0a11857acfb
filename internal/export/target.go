// Package export saves a run's CSV export locally and archives copies to
// local paths, S3 buckets or Azure blob containers.
package export

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Scheme names an archive destination kind.
type Scheme string

const (
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeAzure Scheme = "azblob"
)

// ErrUnsupportedScheme is returned for targets other than file://, s3:// and azblob://.
var ErrUnsupportedScheme = errors.New("unsupported export target")

// Target is a parsed archive destination.
//
//	file:///var/exports/          -> Path "/var/exports/"
//	s3://bucket/exports/run.csv   -> Bucket "bucket", Key "exports/run.csv"
//	azblob://container/run.csv    -> Bucket "container", Key "run.csv"
//
// A Key (or Path) ending in "/" is a prefix; the exported file's base name is appended.
type Target struct {
	Scheme Scheme
	Bucket string
	Key    string
	Path   string
}

// ParseTarget parses an archive destination. A bare path is treated as file://.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("export target is empty")
	}
	if !strings.Contains(raw, "://") {
		return Target{Scheme: SchemeFile, Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid export target %q: %w", raw, err)
	}

	switch Scheme(strings.ToLower(u.Scheme)) {
	case SchemeFile:
		p := u.Path
		if u.Host != "" {
			// file://relative/dir keeps the host as the first component
			p = u.Host + p
		}
		if p == "" {
			return Target{}, fmt.Errorf("file target %q has no path", raw)
		}
		return Target{Scheme: SchemeFile, Path: p}, nil
	case SchemeS3, SchemeAzure:
		if u.Host == "" {
			return Target{}, fmt.Errorf("%s target %q has no bucket", u.Scheme, raw)
		}
		return Target{
			Scheme: Scheme(strings.ToLower(u.Scheme)),
			Bucket: u.Host,
			Key:    strings.TrimPrefix(u.Path, "/"),
		}, nil
	default:
		return Target{}, fmt.Errorf("%w: %q (use file://, s3:// or azblob://)", ErrUnsupportedScheme, u.Scheme)
	}
}

// ObjectKey resolves the destination key for a file with the given base name.
func (t Target) ObjectKey(baseName string) string {
	if t.Key == "" || strings.HasSuffix(t.Key, "/") {
		return path.Join(t.Key, baseName)
	}
	return t.Key
}

func (t Target) String() string {
	switch t.Scheme {
	case SchemeFile:
		return "file://" + t.Path
	default:
		return fmt.Sprintf("%s://%s/%s", t.Scheme, t.Bucket, t.Key)
	}
}
