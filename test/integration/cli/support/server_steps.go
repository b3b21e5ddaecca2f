package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/server"
	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

// startServer runs the real HTTP handlers behind an httptest server.
func (testCtx *TestContext) startServer(mutate func(*server.Config)) error {
	cfg, err := server.ConfigFromApp(config.DefaultConfig())
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	testCtx.HTTPServer = httptest.NewServer(mux)
	return nil
}

func (testCtx *TestContext) aWarpServerIsRunning() error {
	return testCtx.startServer(nil)
}

func (testCtx *TestContext) aWarpServerIsRunningWithRateLimit(perMinute int) error {
	return testCtx.startServer(func(c *server.Config) { c.RateLimitPerMinute = perMinute })
}

func (testCtx *TestContext) aWarpServerIsRunningWithMaxDestPixels(maxPixels int) error {
	return testCtx.startServer(func(c *server.Config) { c.MaxDestPixels = maxPixels })
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = body
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

// iGET requests path from the running server.
func (testCtx *TestContext) iGET(path string) error {
	if testCtx.HTTPServer == nil {
		return errors.New("no server running")
	}
	resp, err := http.Get(testCtx.HTTPServer.URL + path) //nolint:noctx // test request
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

// iUploadWithFields posts an image as multipart "image" plus form fields.
func (testCtx *TestContext) iUploadWithFields(name, path string, fields *godog.Table) error {
	if testCtx.HTTPServer == nil {
		return errors.New("no server running")
	}
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if fields != nil {
		for _, row := range fields.Rows {
			if len(row.Cells) != 2 {
				return fmt.Errorf("expected 2 cells per field row, got %d", len(row.Cells))
			}
			if err := w.WriteField(row.Cells[0].Value, row.Cells[1].Value); err != nil {
				return err
			}
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	resp, err := http.Post(testCtx.HTTPServer.URL+path, w.FormDataContentType(), &body) //nolint:noctx // test request
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) iUpload(name, path string) error {
	return testCtx.iUploadWithFields(name, path, nil)
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("status %d, expected %d\nBody: %s", testCtx.LastHTTPStatusCode, code, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if got != value {
		return fmt.Errorf("header %s is %q, expected %q", name, got, value)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBeAPNGImage(width, height int) error {
	img, err := png.Decode(bytes.NewReader(testCtx.LastHTTPResponse))
	if err != nil {
		return fmt.Errorf("response is not a PNG: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("PNG is %dx%d, expected %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return nil
}

func (testCtx *TestContext) theResponseBodyShouldBeBytes(size int) error {
	if len(testCtx.LastHTTPResponse) != size {
		return fmt.Errorf("body is %d bytes, expected %d", len(testCtx.LastHTTPResponse), size)
	}
	return nil
}

// theJSONResponseShouldContain checks a dotted field path in a JSON body.
func (testCtx *TestContext) theJSONResponseShouldContain(field string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(testCtx.LastHTTPResponse, &data); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	var current interface{} = data
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return fmt.Errorf("field %s: %v is not an object", field, current)
		}
		if current, ok = obj[part]; !ok {
			return fmt.Errorf("field %s not found in %s", field, testCtx.LastHTTPResponse)
		}
	}
	return nil
}

// iOpenAWarpSession dials the websocket drag session.
func (testCtx *TestContext) iOpenAWarpSession() error {
	if testCtx.HTTPServer == nil {
		return errors.New("no server running")
	}
	url := "ws" + strings.TrimPrefix(testCtx.HTTPServer.URL, "http") + "/v1/session"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial session: %w", err)
	}
	testCtx.SessionConn = conn
	return nil
}

func (testCtx *TestContext) readSessionJSON() (map[string]interface{}, error) {
	_ = testCtx.SessionConn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var msg map[string]interface{}
	if err := testCtx.SessionConn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// iSendTheSourceImage uploads a source as a binary message and waits for ready.
func (testCtx *TestContext) iSendTheSourceImage(name string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	if err := testCtx.SessionConn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}
	msg, err := testCtx.readSessionJSON()
	if err != nil {
		return err
	}
	if msg["type"] != "ready" {
		return fmt.Errorf("expected ready, got %v", msg)
	}
	return nil
}

// iDragTheQuadTo sends a pixel-space quad and reads the frame and payload.
func (testCtx *TestContext) iDragTheQuadTo(corners string) error {
	var pts [][2]float64
	for _, p := range strings.Split(corners, ";") {
		xy := strings.Split(p, ",")
		if len(xy) != 2 {
			return fmt.Errorf("invalid point %q", p)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return err
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return err
		}
		pts = append(pts, [2]float64{x, y})
	}

	testCtx.LastSeq++
	if err := testCtx.SessionConn.WriteJSON(map[string]interface{}{
		"type":    "quad",
		"seq":     testCtx.LastSeq,
		"corners": pts,
	}); err != nil {
		return err
	}

	frame, err := testCtx.readSessionJSON()
	if err != nil {
		return err
	}
	testCtx.LastFrame = frame
	if frame["type"] != "frame" {
		return nil
	}
	_, payload, err := testCtx.SessionConn.ReadMessage()
	if err != nil {
		return err
	}
	testCtx.LastPayload = payload
	return nil
}

func (testCtx *TestContext) iShouldReceiveAFrame(written, skipped int) error {
	f := testCtx.LastFrame
	if f == nil || f["type"] != "frame" {
		return fmt.Errorf("expected a frame, got %v", f)
	}
	// JSON numbers decode as float64.
	if int(f["written"].(float64)) != written || int(f["skipped"].(float64)) != skipped {
		return fmt.Errorf("frame has %v written and %v skipped, expected %d and %d",
			f["written"], f["skipped"], written, skipped)
	}
	if seq := int64(f["seq"].(float64)); seq != testCtx.LastSeq {
		return fmt.Errorf("frame seq %d, expected %d", seq, testCtx.LastSeq)
	}
	expected := int(f["width"].(float64)) * int(f["height"].(float64)) * int(f["components"].(float64))
	if len(testCtx.LastPayload) != expected {
		return fmt.Errorf("payload is %d bytes, expected %d", len(testCtx.LastPayload), expected)
	}
	return nil
}

func (testCtx *TestContext) iShouldReceiveAFrameOfSize(width, height int) error {
	f := testCtx.LastFrame
	if f == nil || f["type"] != "frame" {
		return fmt.Errorf("expected a frame, got %v", f)
	}
	if int(f["width"].(float64)) != width || int(f["height"].(float64)) != height {
		return fmt.Errorf("frame is %vx%v, expected %dx%d", f["width"], f["height"], width, height)
	}
	if int(f["written"].(float64))+int(f["skipped"].(float64)) != width*height {
		return fmt.Errorf("frame counts %v written and %v skipped for %d pixels", f["written"], f["skipped"], width*height)
	}
	return nil
}

func (testCtx *TestContext) iShouldReceiveASessionError(errorType string) error {
	f := testCtx.LastFrame
	if f == nil || f["type"] != "error" {
		return fmt.Errorf("expected an error message, got %v", f)
	}
	if f["error_type"] != errorType {
		return fmt.Errorf("error type %v, expected %s", f["error_type"], errorType)
	}
	return nil
}

// RegisterServerSteps registers HTTP API and websocket session steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a warp server is running$`, testCtx.aWarpServerIsRunning)
	sc.Step(`^a warp server is running with a limit of (\d+) requests? per minute$`,
		testCtx.aWarpServerIsRunningWithRateLimit)
	sc.Step(`^a warp server is running with at most (\d+) destination pixels$`,
		testCtx.aWarpServerIsRunningWithMaxDestPixels)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUpload)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)" with fields:$`, testCtx.iUploadWithFields)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response should be a (\d+)x(\d+) PNG image$`, testCtx.theResponseShouldBeAPNGImage)
	sc.Step(`^the response body should be (\d+) bytes$`, testCtx.theResponseBodyShouldBeBytes)
	sc.Step(`^the JSON response should contain "([^"]*)"$`, testCtx.theJSONResponseShouldContain)
	sc.Step(`^I open a warp session$`, testCtx.iOpenAWarpSession)
	sc.Step(`^I send the source image "([^"]*)"$`, testCtx.iSendTheSourceImage)
	sc.Step(`^I drag the quad to "([^"]*)"$`, testCtx.iDragTheQuadTo)
	sc.Step(`^I should receive a frame with (\d+) written and (\d+) skipped pixels$`, testCtx.iShouldReceiveAFrame)
	sc.Step(`^I should receive a (\d+)x(\d+) frame$`, testCtx.iShouldReceiveAFrameOfSize)
	sc.Step(`^I should receive a "([^"]*)" session error$`, testCtx.iShouldReceiveASessionError)
}
