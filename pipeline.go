package ppusprite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bodgit/ppusprite/asset"
)

// Filename is the name of the container written to each directory by Scan
const Filename = "sprites.bin"

func isImage(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png", ".gif", ".jpg", ".jpeg":
		return true
	}
	return false
}

func listImages(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	info, err := d.Stat()
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, errors.New("not a directory")
	}

	names, err := d.Readdirnames(0)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var files []string
	for _, name := range names {
		// Ignore any hidden files, otherwise we end up fighting with things like Spotlight, etc.
		if name[0] == '.' || !isImage(name) {
			continue
		}

		file := filepath.Join(dir, name)
		fi, err := os.Stat(file)
		if err != nil {
			return nil, err
		}
		if fi.Mode().IsRegular() {
			files = append(files, file)
		}
	}

	return files, nil
}

func (p *Packer) findDirectories(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(dir string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if dir != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a directory
			if !info.Mode().IsDir() {
				return nil
			}

			select {
			case out <- dir:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (p *Packer) writeContainer(dir string, sprites []asset.Sprite) error {
	f, err := os.Create(filepath.Join(dir, Filename))
	if err != nil {
		return err
	}

	if err := asset.Write(f, sprites); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (p *Packer) directoryWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for dir := range in {
			if ctx.Err() != nil {
				continue
			}

			files, err := listImages(dir)
			if err != nil {
				errc <- err
				return
			}

			if len(files) == 0 {
				continue
			}

			sprites := make([]asset.Sprite, 0, len(files))
			for _, file := range files {
				s, err := p.Convert(file)
				if err != nil {
					errc <- err
					return
				}
				sprites = append(sprites, s)
			}

			if err := p.writeContainer(dir, sprites); err != nil {
				errc <- err
				return
			}

			p.logger.Printf("Wrote %d sprites to \"%s\"\n", len(sprites), filepath.Join(dir, Filename))
		}
	}()
	return errc, nil
}

func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	var first error
	for err := range errc {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the directory tree rooted at path and, for every directory that
// directly contains images, converts them in name order and writes the
// sprites to a container named Filename in that directory.
func (p *Packer) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	dirs, errc, err := p.findDirectories(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < p.opts.Workers; i++ {
		errc, err := p.directoryWorker(ctx, dirs)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
