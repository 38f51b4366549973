// Package normalize implements the tensor normalization stage.
package normalize

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"runtime"
	"sort"
	"sync"

	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

// Normalize converts an image to channel-interleaved standardized floats.
// Pixels are visited in row-major order and emit R, G, B as
// (raw/255 - mean[c]) / std[c]. Alpha is dropped: raw is the straight
// (non-premultiplied) channel value, as getImageData reports it.
func Normalize(img image.Image, mean, std [3]float64) []float32 {
	px := toNRGBA(img)
	b := px.Bounds()
	w, h := b.Dx(), b.Dy()

	out := make([]float32, 0, pipeline.FrameValues(w, h))
	for y := 0; y < h; y++ {
		row := px.Pix[y*px.Stride : y*px.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			for c := 0; c < pipeline.Channels; c++ {
				v := (float64(p[c])/255 - mean[c]) / std[c]
				out = append(out, float32(v))
			}
		}
	}
	return out
}

// toNRGBA returns img as a zero-origin *image.NRGBA. Opaque *image.RGBA
// frames, which is what the sampler produces, are copied without conversion.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if rgba, ok := img.(*image.RGBA); ok && rgba.Opaque() {
		for y := 0; y < b.Dy(); y++ {
			copy(n.Pix[y*n.Stride:y*n.Stride+b.Dx()*4], rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return n
	}
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return n
}

// Stage normalizes a sampled frame collection into the model input tensor.
type Stage struct {
	renderer   ports.Renderer
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new normalize stage.
func NewStage(renderer ports.Renderer, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		renderer:   renderer,
		logger:     logger.WithComponent("normalize"),
		numWorkers: numWorkers,
	}
}

// Encode returns img as JPEG bytes at the given quality.
func (s *Stage) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = pipeline.DefaultJPEGQuality
	}
	return s.renderer.EncodeImage(img, ports.FormatJPEG, quality)
}

// Execute normalizes every frame. The collection length must equal input.Expected.
func (s *Stage) Execute(ctx context.Context, input pipeline.NormalizeInput) (pipeline.NormalizeResult, error) {
	if len(input.Frames) != input.Expected {
		return pipeline.NormalizeResult{}, fmt.Errorf("%w: got %d, want %d",
			pipeline.ErrFrameCountMismatch, len(input.Frames), input.Expected)
	}
	if len(input.Frames) == 0 {
		return pipeline.NormalizeResult{Frames: []pipeline.NormalizedFrame{}}, nil
	}

	s.logger.Debug("Normalizing %d frames with %d workers", len(input.Frames), s.numWorkers)

	frames, err := s.executeParallel(ctx, input)
	if err != nil {
		return pipeline.NormalizeResult{}, err
	}

	b := input.Frames[0].Pixels.Bounds()
	s.logger.Debug("Normalization completed")
	return pipeline.NormalizeResult{Frames: frames, Width: b.Dx(), Height: b.Dy()}, nil
}

// executeParallel normalizes frames using a worker pool and restores index order.
func (s *Stage) executeParallel(ctx context.Context, input pipeline.NormalizeInput) ([]pipeline.NormalizedFrame, error) {
	numFrames := len(input.Frames)
	jobs := make(chan int, numFrames)
	results := make(chan pipeline.NormalizedFrame, numFrames)
	errChan := make(chan error, s.numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers; w++ {
		wg.Add(1)
		go s.worker(ctx, &wg, input, jobs, results, errChan)
	}

	for i := 0; i < numFrames; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
		close(errChan)
	}()

	frames := make([]pipeline.NormalizedFrame, 0, numFrames)
	for f := range results {
		frames = append(frames, f)
	}

	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Index < frames[j].Index
	})
	return frames, nil
}

func (s *Stage) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	input pipeline.NormalizeInput,
	jobs <-chan int,
	results chan<- pipeline.NormalizedFrame,
	errChan chan<- error,
) {
	defer wg.Done()

	for idx := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		src := input.Frames[idx]
		if src.Pixels == nil {
			select {
			case errChan <- fmt.Errorf("normalize frame %d: empty raster", idx):
			default:
			}
			return
		}

		frame := pipeline.NormalizedFrame{
			Index: src.Index,
			Data:  Normalize(src.Pixels, input.Mean, input.Std),
		}
		if input.Encode {
			data, err := s.Encode(src.Pixels, input.Quality)
			if err != nil {
				select {
				case errChan <- fmt.Errorf("encode frame %d: %w", idx, err):
				default:
				}
				return
			}
			frame.JPEG = data
		}

		results <- frame
	}
}
