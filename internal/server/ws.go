package server

import (
	"encoding/base64"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FramesHandler anonymizes webcam frames over a WebSocket. Clients send one
// binary JPEG-encoded frame per message and receive the processed frame and
// face count back; each frame is processed independently.
type FramesHandler struct {
	proc *anonymizer.Processor
}

// NewFramesHandler creates a new FramesHandler with the given processor.
func NewFramesHandler(proc *anonymizer.Processor) *FramesHandler {
	return &FramesHandler{proc: proc}
}

// ServeHTTP handles WebSocket upgrade requests and runs the frame loop.
// Method and factor come from the blur_method/blur_factor query parameters
// and apply for the lifetime of the connection.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	method, factor := requestOptions(r)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		response, err := h.processFrame(data, method, factor)
		if err != nil {
			conn.WriteJSON(errorResponse{Error: err.Error()})
			continue
		}

		if err := conn.WriteJSON(response); err != nil {
			return
		}
	}
}

// processFrame decodes, anonymizes and re-encodes one frame.
func (h *FramesHandler) processFrame(data []byte, method anonymizer.Method, factor int) (*frameResponse, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || img.Empty() {
		return nil, anonymizer.ErrEmptyFrame
	}
	defer img.Close()

	count, err := h.proc.ProcessFrameWith(&img, method, factor)
	if err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return &frameResponse{
		ProcessedImage: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes()),
		FaceCount:      count,
	}, nil
}
