package viewer

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/user/yuvview/pkg/ports"
)

// ExportRequest describes a range of frames to write as images.
type ExportRequest struct {
	From, To int
	Dir      string
	Format   ports.ImageFormat
	Quality  int // JPEG only
	Render   ports.RenderOptions
	Workers  int // 0 means one per CPU
}

// ExportResult lists the written files in frame order.
type ExportResult struct {
	Files []string
}

// FileName returns the export file name of frame index.
func FileName(index int, format ports.ImageFormat) string {
	return fmt.Sprintf("frame-%05d.%s", index, format.Extension())
}

type exported struct {
	index int
	path  string
}

// Export renders frames From..To through the cache and writes one image
// per frame into Dir.
func (v *Viewer) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	if err := v.checkRange(req.From, req.To); err != nil {
		return ExportResult{}, err
	}
	if err := v.fs.MkdirAll(req.Dir); err != nil {
		return ExportResult{}, fmt.Errorf("create %s: %w", req.Dir, err)
	}

	indices := span(req.From, req.To, 1)
	workers := req.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(indices))

	v.logger.Info("Exporting frames %d-%d to %s with %d workers", req.From, req.To, req.Dir, workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(indices))
	results := make(chan exported, len(indices))
	errChan := make(chan error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				path, err := v.exportFrame(ctx, req, idx)
				if err != nil {
					select {
					case errChan <- err:
					default:
					}
					cancel()
					return
				}
				results <- exported{index: idx, path: path}
			}
		}()
	}

	for _, idx := range indices {
		jobs <- idx
	}
	close(jobs)

	wg.Wait()
	close(results)
	close(errChan)

	if err := <-errChan; err != nil {
		return ExportResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ExportResult{}, err
	}

	files := make([]exported, 0, len(indices))
	for r := range results {
		files = append(files, r)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].index < files[j].index
	})

	result := ExportResult{Files: make([]string, len(files))}
	for i, f := range files {
		result.Files[i] = f.path
	}

	v.logger.Info("Exported %d frames", len(result.Files))
	return result, nil
}

func (v *Viewer) exportFrame(ctx context.Context, req ExportRequest, index int) (string, error) {
	frame, err := v.cache.Get(ctx, index)
	if err != nil {
		return "", err
	}

	data, err := v.renderer.EncodeImage(v.renderer.Render(frame, req.Render), req.Format, req.Quality)
	if err != nil {
		return "", fmt.Errorf("encode frame %d: %w", index, err)
	}

	path := filepath.Join(req.Dir, FileName(index, req.Format))
	if err := v.fs.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("write frame %d: %w", index, err)
	}
	v.logger.Debug("Wrote %s", path)
	return path, nil
}
