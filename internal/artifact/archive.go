package artifact

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/julianshen/unityctx/internal/analysis"
)

// ArchiveName is the download name of an exported archive.
const ArchiveName = "unity_analysis_results.zip"

// Export writes a zip of every regular file directly inside dir to w.
// Subdirectories are skipped. A missing dir is NoArtifacts.
func Export(dir string, w io.Writer) error {
	names, err := regularFiles(dir)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, name := range names {
		if err := addFile(zw, dir, name); err != nil {
			zw.Close()
			return analysis.Wrap(analysis.Internal, err, "archiving %s", name)
		}
	}
	if err := zw.Close(); err != nil {
		return analysis.Wrap(analysis.Internal, err, "finishing archive")
	}
	return nil
}

// WriteArchive exports dir into a new temporary file under tempDir and
// returns its path. The caller owns the file and must remove it.
func WriteArchive(dir, tempDir string) (string, error) {
	f, err := os.CreateTemp(tempDir, "unityctx-archive-*.zip")
	if err != nil {
		return "", analysis.Wrap(analysis.Internal, err, "creating archive file")
	}
	path := f.Name()

	if err := Export(dir, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", analysis.Wrap(analysis.Internal, err, "closing archive file")
	}
	return path, nil
}

func regularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, analysis.Errorf(analysis.NoArtifacts, "no analysis results found")
	}
	if err != nil {
		return nil, analysis.Wrap(analysis.Internal, err, "reading %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func addFile(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying: %w", err)
	}
	return nil
}
