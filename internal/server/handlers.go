package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/MeKo-Tech/quadwarp/internal/version"
)

// Response headers describing a warp result.
const (
	headerWidth      = "X-Quadwarp-Width"
	headerHeight     = "X-Quadwarp-Height"
	headerComponents = "X-Quadwarp-Components"
	headerWritten    = "X-Quadwarp-Written"
	headerSkipped    = "X-Quadwarp-Skipped"
	headerDuration   = "X-Quadwarp-Duration-Ms"
)

var warpHeaders = []string{headerWidth, headerHeight, headerComponents, headerWritten, headerSkipped, headerDuration}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// infoHandler describes the accepted parameters and the server defaults.
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := InfoResponse{
		Version:       version.Version,
		Resolvers:     []string{texmap.BilinearQuad{}.Name(), texmap.BarycentricQuad{}.Name()},
		OutOfQuad:     []string{texmap.QuadWrap.String(), texmap.QuadClamp.String(), texmap.QuadSkip.String()},
		OutOfTexture:  []string{texmap.TextureWrap.String(), texmap.TextureClamp.String()},
		Formats:       []string{string(imageio.FormatPNG), string(imageio.FormatJPEG), string(imageio.FormatWebP), string(imageio.FormatRaw)},
		MaxUploadMB:   s.maxUploadMB,
		MaxDestPixels: s.maxDestPixels,
		Defaults:      s.base.Info(),
	}
	response.Defaults["format"] = string(s.outputFormat)
	response.Defaults["overlay"] = s.overlayEnabled
	s.writeJSON(w, http.StatusOK, response)
}

// warpHandler warps an uploaded image and responds with the encoded destination.
func (s *Server) warpHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, params, err := s.parseWarpRequest(w, r)
	if err != nil {
		warpRequestsTotal.WithLabelValues("http", "error").Inc()
		return // error already written
	}

	pl, err := params.pipelineFor(s.base)
	if err != nil {
		warpRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Invalid warp parameters: %v", err), http.StatusBadRequest)
		return
	}
	format, err := params.format(s.outputFormat)
	if err != nil {
		warpRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	b := img.Bounds()
	if err := s.checkDestSize(pl, b.Dx(), b.Dy()); err != nil {
		warpRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := pl.ProcessImage(img)
	if err != nil {
		warpRequestsTotal.WithLabelValues("http", "error").Inc()
		status := http.StatusInternalServerError
		var ce *texmap.ContractError
		if errors.As(err, &ce) {
			status = http.StatusBadRequest
		}
		s.writeErrorResponse(w, fmt.Sprintf("Warp failed: %v", err), status)
		return
	}
	defer out.Release()

	warpRequestsTotal.WithLabelValues("http", "success").Inc()
	observeBlit("http", out.Duration.Seconds(), out.Result.Stats.Written, out.Result.Stats.Skipped)

	var buf bytes.Buffer
	components := out.Result.Components
	if params.overlay(s.overlayEnabled) {
		var preview image.Image
		if preview, err = out.Overlay(s.overlayColor); err == nil {
			err = imageio.Encode(&buf, preview, format)
			components = 4
		}
	} else {
		err = imageio.EncodeResult(&buf, out.Result, format)
	}
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to encode result: %v", err), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set(headerWidth, strconv.Itoa(out.Result.Width))
	h.Set(headerHeight, strconv.Itoa(out.Result.Height))
	h.Set(headerComponents, strconv.Itoa(components))
	h.Set(headerWritten, strconv.Itoa(out.Result.Stats.Written))
	h.Set(headerSkipped, strconv.Itoa(out.Result.Stats.Skipped))
	h.Set(headerDuration, strconv.FormatFloat(float64(out.Duration.Microseconds())/1000, 'f', 3, 64))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Failed to write warp response", "error", err)
	}
}

func (s *Server) parseWarpRequest(w http.ResponseWriter, r *http.Request) (image.Image, warpParams, error) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, warpParams{}, err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return nil, warpParams{}, err
	}
	defer func() { _ = file.Close() }()

	uploadSizeBytes.Observe(float64(header.Size))

	img, meta, err := imageio.DecodeReader(file, limit)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid image: %v", err), http.StatusBadRequest)
		return nil, warpParams{}, err
	}

	params, err := paramsFromRequest(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return nil, warpParams{}, err
	}

	slog.Debug("Warp request", "filename", header.Filename, "format", meta.Format,
		"width", meta.Width, "height", meta.Height, "corners", params.Corners)
	return img, params, nil
}

// checkDestSize rejects destinations above the configured pixel budget.
func (s *Server) checkDestSize(pl *pipeline.Pipeline, srcWidth, srcHeight int) error {
	dw, dh := pl.DestSize(srcWidth, srcHeight)
	if int64(dw)*int64(dh) > int64(s.maxDestPixels) {
		return fmt.Errorf("destination %dx%d exceeds %d pixels", dw, dh, s.maxDestPixels)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}
