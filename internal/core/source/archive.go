package source

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

type archiveFormat struct {
	ext        string
	decompress func(io.Reader) (io.Reader, error)
}

var archiveFormats = []archiveFormat{
	{ext: ".tar.gz", decompress: gunzip},
	{ext: ".tgz", decompress: gunzip},
	{ext: ".tar.xz", decompress: unxz},
	{ext: ".txz", decompress: unxz},
	{ext: ".tar", decompress: func(r io.Reader) (io.Reader, error) { return r, nil }},
}

func gunzip(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }

func unxz(r io.Reader) (io.Reader, error) { return xz.NewReader(r) }

// archiveFormatOf picks the format from the URL path suffix, ignoring any query.
func archiveFormatOf(rawURL string) (archiveFormat, error) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.ToLower(p)
	for _, f := range archiveFormats {
		if strings.HasSuffix(p, f.ext) {
			return f, nil
		}
	}
	return archiveFormat{}, fmt.Errorf("%w: %s", ErrUnsupportedArchive, rawURL)
}

// extract unpacks archivePath into destDir. Entries resolving outside destDir,
// links pointing outside it, and writes through a symlinked directory are rejected.
func extract(archivePath, destDir string, format archiveFormat) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open downloaded archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, err := format.decompress(f)
	if err != nil {
		return fmt.Errorf("failed to create %s reader: %w", format.ext, err)
	}
	if c, ok := r.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading tar: %w", err)
		}
		if err := extractEntry(destDir, hdr, tr); err != nil {
			return err
		}
	}
}

func extractEntry(root string, hdr *tar.Header, r io.Reader) error {
	switch hdr.Typeflag {
	case tar.TypeDir, tar.TypeReg, tar.TypeSymlink, tar.TypeLink:
	default:
		// pax global headers, fifos and device nodes are not needed for builds
		return nil
	}

	target, err := safeJoin(root, hdr.Name)
	if err != nil {
		return err
	}
	if err := checkParents(root, target, hdr.Name); err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, dirMode(hdr)); err != nil {
			return fmt.Errorf("failed to create dir %s: %w", target, err)
		}
		return nil
	case tar.TypeReg:
		if err := removeSymlink(target); err != nil {
			return err
		}
		return writeFile(target, r, os.FileMode(hdr.Mode).Perm())
	case tar.TypeSymlink:
		if filepath.IsAbs(hdr.Linkname) {
			return fmt.Errorf("%w: symlink %q points to absolute path %q", ErrArchiveLayout, hdr.Name, hdr.Linkname)
		}
		if _, err := safeJoin(root, relTo(root, filepath.Join(filepath.Dir(target), hdr.Linkname))); err != nil {
			return fmt.Errorf("%w: symlink %q points outside archive root", ErrArchiveLayout, hdr.Name)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create parent dir: %w", err)
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
			return fmt.Errorf("failed to create symlink %s -> %s: %w", target, hdr.Linkname, err)
		}
		return nil
	default: // tar.TypeLink, Linkname is relative to the archive root
		linked, err := safeJoin(root, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := checkParents(root, linked, hdr.Linkname); err != nil {
			return err
		}
		info, err := os.Lstat(linked)
		if err != nil {
			return fmt.Errorf("%w: hard link %q targets missing entry %q", ErrArchiveLayout, hdr.Name, hdr.Linkname)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: hard link %q targets non-regular entry %q", ErrArchiveLayout, hdr.Name, hdr.Linkname)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create parent dir: %w", err)
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to replace %s: %w", target, err)
		}
		if err := os.Link(linked, target); err != nil {
			return fmt.Errorf("failed to create hard link %s -> %s: %w", target, linked, err)
		}
		return nil
	}
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: entry %q escapes archive root", ErrArchiveLayout, name)
	}
	return target, nil
}

// relTo expresses path relative to root; safeJoin then decides containment.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// checkParents rejects target when an existing directory between root and
// target is a symlink, since writing through it could leave root.
func checkParents(root, target, name string) error {
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}
	cur := root
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", cur, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: entry %q passes through symlink %q", ErrArchiveLayout, name, relTo(root, cur))
		}
	}
	return nil
}

// removeSymlink deletes target if it is a symlink so a following write does not go through it.
func removeSymlink(target string) error {
	info, err := os.Lstat(target)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("failed to replace symlink %s: %w", target, err)
	}
	return nil
}

func dirMode(hdr *tar.Header) os.FileMode {
	mode := os.FileMode(hdr.Mode).Perm()
	if mode == 0 {
		return 0o755
	}
	return mode | 0o700
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create parent dir: %w", err)
	}
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write file %s: %w", target, err)
	}
	return out.Close()
}
