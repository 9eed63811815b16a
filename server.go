package lblreview

// The HTTP shell: a small single-user web UI around a ReviewSession.
//
// The shell owns nothing of the review logic. It translates uploads, navigation
// clicks and submit actions into ReviewSession calls, and streams the rendered
// image back to the browser.

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
)

//go:embed www
var staticWWW embed.FS

// Server exposes a ReviewSession over HTTP for a single reviewer.
type Server struct {
	// One mutex serializes all session access. The tool is single-user by
	// contract, so there is no finer-grained locking to be had.
	mu      sync.Mutex
	session *ReviewSession
	folders *FolderPersister
	router  *httprouter.Router
}

// NewServer wires the HTTP routes for session. folders handles the explicit
// "create validation folders" action.
func NewServer(session *ReviewSession, folders *FolderPersister) *Server {
	s := &Server{session: session, folders: folders}

	router := httprouter.New()
	router.GET("/", s.httpIndex)
	router.GET("/api/state", s.httpState)
	router.GET("/api/image/current", s.httpCurrentImage)
	router.POST("/api/upload", s.httpUpload)
	router.POST("/api/folders", s.httpCreateFolders)
	router.POST("/api/advance", s.httpAdvance)
	router.POST("/api/annotate", s.httpAnnotate)
	router.POST("/api/submit", s.httpSubmit)
	s.router = router

	return s
}

// Handler returns the server's HTTP handler, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves the review UI on addr (e.g. ":8077") until the process
// is stopped.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("Review UI listening on %v", addr)
	return http.ListenAndServe(addr, s.router)
}

// stateResponse describes the current review position for the UI.
type stateResponse struct {
	Empty       bool   `json:"empty"`
	ID          string `json:"id,omitempty"`
	ImageName   string `json:"imageName,omitempty"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	Detections  int    `json:"detections"`
	Provisional string `json:"provisional,omitempty"`
	ParseError  string `json:"parseError,omitempty"`
	Classes     int    `json:"classes"`
}

type uploadResponse struct {
	AddedImages int `json:"addedImages"`
	AddedLabels int `json:"addedLabels"`
	Classes     int `json:"classes"`
}

func (s *Server) httpIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	content, err := staticWWW.ReadFile("www/index.html")
	if err != nil {
		sendError(w, http.StatusInternalServerError, "missing embedded UI: %v", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(content)
}

func (s *Server) httpState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendState(w)
}

// sendState writes the current review state. Callers must hold s.mu.
func (s *Server) sendState(w http.ResponseWriter) {
	resp := stateResponse{Classes: len(s.session.Catalog)}

	item, err := s.session.RenderCurrent()
	switch {
	case errors.Is(err, ErrEmptyQueue):
		resp.Empty = true
	case err != nil:
		sendError(w, http.StatusInternalServerError, "failed to render the current item: %v", err)
		return
	default:
		resp.ID = item.ID
		resp.ImageName = item.ImageName
		resp.Index = item.Index
		resp.Total = item.Total
		resp.Detections = item.Detections
		resp.Provisional = item.Provisional.String()
		resp.ParseError = item.ParseError
	}

	sendJSON(w, resp)
}

func (s *Server) httpCurrentImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.session.RenderCurrent()
	if errors.Is(err, ErrEmptyQueue) {
		sendError(w, http.StatusNotFound, "nothing to review")
		return
	} else if err != nil {
		sendError(w, http.StatusInternalServerError, "failed to render the current item: %v", err)
		return
	}

	// The payload is PNG when boxes were drawn, otherwise the original upload.
	w.Header().Set("Content-Type", http.DetectContentType(item.Image))
	_, _ = w.Write(item.Image)
}

func (s *Server) httpUpload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		sendError(w, http.StatusBadRequest, "invalid multipart form: %v", err)
		return
	}

	images, err := readMultipartFiles(r.MultipartForm.File["images"])
	if err != nil {
		sendError(w, http.StatusBadRequest, "failed to read the image uploads: %v", err)
		return
	}
	labels, err := readMultipartFiles(r.MultipartForm.File["labels"])
	if err != nil {
		sendError(w, http.StatusBadRequest, "failed to read the label uploads: %v", err)
		return
	}
	classNames, err := readMultipartFiles(r.MultipartForm.File["classNames"])
	if err != nil {
		sendError(w, http.StatusBadRequest, "failed to read the class names upload: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := uploadResponse{}
	if len(classNames) > 0 {
		resp.Classes = s.session.SetClassNames(classNames[0].Data)
	} else {
		resp.Classes = len(s.session.Catalog)
	}
	resp.AddedImages = s.session.AddImages(images)
	resp.AddedLabels = s.session.AddLabels(labels)
	log.Printf("Upload added %d images and %d labels", resp.AddedImages, resp.AddedLabels)

	sendJSON(w, resp)
}

func (s *Server) httpCreateFolders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.folders.EnsureFolders(); err != nil {
		sendError(w, http.StatusBadRequest, "%v", err)
		return
	}
	sendJSON(w, map[string]string{"baseDir": s.folders.BaseDir})
}

func (s *Server) httpAdvance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var delta int
	switch dir := r.FormValue("direction"); dir {
	case "forward", "next":
		delta = 1
	case "backward", "prev":
		delta = -1
	default:
		sendError(w, http.StatusBadRequest, "unknown direction %q", dir)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Advance(delta)
	s.sendState(w)
}

func (s *Server) httpAnnotate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	decision, err := ParseDecision(r.FormValue("decision"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "%v", err)
		return
	}
	id := r.FormValue("id")
	if id == "" {
		sendError(w, http.StatusBadRequest, "missing item id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.SetProvisional(id, decision)
	sendJSON(w, map[string]string{"id": id, "decision": decision.String()})
}

func (s *Server) httpSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	decision, err := ParseDecision(r.FormValue("decision"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Submit(decision); err != nil {
		if errors.Is(err, ErrEmptyQueue) {
			sendError(w, http.StatusConflict, "nothing to review")
		} else {
			// The item is still pending; the reviewer can retry after fixing the cause.
			sendError(w, http.StatusInternalServerError, "%v", err)
		}
		return
	}
	s.sendState(w)
}

func readMultipartFiles(headers []*multipart.FileHeader) ([]NamedFile, error) {
	files := make([]NamedFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, NamedFile{Name: header.Filename, Data: data})
	}
	return files, nil
}

func sendJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode the response: %v", err)
	}
}

func sendError(w http.ResponseWriter, code int, format string, args ...interface{}) {
	http.Error(w, fmt.Sprintf(format, args...), code)
}
