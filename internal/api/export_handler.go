package api

import (
	"net/http"
	"strconv"

	"drafter/client/internal/interfaces"
	"drafter/client/internal/model"
)

const defaultDownloadsLimit = 50

// ExportHandler serves clipboard and download actions on the current document.
type ExportHandler struct {
	conversation interfaces.ConversationReader
	exporter     interfaces.ExportService
}

func NewExportHandler(conversation interfaces.ConversationReader, exporter interfaces.ExportService) *ExportHandler {
	return &ExportHandler{conversation: conversation, exporter: exporter}
}

// HandleCopy godoc
// @Summary      Copy the current document to the clipboard
// @Description  Clipboard failures are not reported.
// @Tags         Export
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/document/copy [post]
func (h *ExportHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	_, doc, err := currentDocument(h.conversation)
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.exporter.Copy(r.Context(), doc)
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleDownload godoc
// @Summary      Download the current document
// @Description  Writes the document to the export directory as markdown or as a standalone HTML page.
// @Tags         Export
// @Accept       json
// @Produce      json
// @Param        request  body  DownloadRequest  true  "Format"
// @Success      201  {object}  model.Download
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/document/download [post]
func (h *ExportHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	sessionID, doc, err := currentDocument(h.conversation)
	if err != nil {
		respondWithError(w, err)
		return
	}

	var download *model.Download
	if req.Format == model.FormatHTML {
		download, err = h.exporter.DownloadRendered(r.Context(), sessionID, doc)
	} else {
		download, err = h.exporter.DownloadSource(r.Context(), sessionID, doc)
	}
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, download)
}

// GetDownloads godoc
// @Summary      List recorded downloads
// @Tags         Export
// @Produce      json
// @Param        session_id  query  string  false  "Only this session"
// @Param        limit       query  int     false  "Maximum number of entries"
// @Success      200  {array}  model.Download
// @Router       /v1/downloads [get]
func (h *ExportHandler) GetDownloads(w http.ResponseWriter, r *http.Request) {
	limit := defaultDownloadsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	downloads, err := h.exporter.Downloads(r.Context(), r.URL.Query().Get("session_id"), limit)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, downloads)
}
