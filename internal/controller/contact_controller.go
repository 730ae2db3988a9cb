package controller

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/unclebandit/emailcraft-backend/internal/handler"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

const maxUploadBytes = 10 << 20

type ContactController struct {
	ContactService *service.ContactService
}

func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := c.ContactService.ListContacts(r.Context())
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to fetch contacts")
		return
	}
	handler.WriteJSON(w, http.StatusOK, contacts)
}

func (c *ContactController) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := handler.ParseID(r)
	if !ok {
		handler.WriteError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}
	contact, err := c.ContactService.GetContact(r.Context(), id)
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to fetch contact")
		return
	}
	handler.WriteJSON(w, http.StatusOK, contact)
}

func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body service.ContactInput
	if !handler.DecodeAndValidate(w, r, &body) {
		return
	}
	contact, err := c.ContactService.CreateContact(r.Context(), body)
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to create contact")
		return
	}
	handler.WriteJSON(w, http.StatusCreated, contact)
}

func (c *ContactController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := handler.ParseID(r)
	if !ok {
		handler.WriteError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}
	var body service.ContactInput
	if !handler.DecodeAndValidate(w, r, &body) {
		return
	}
	contact, err := c.ContactService.UpdateContact(r.Context(), id, body)
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to update contact")
		return
	}
	handler.WriteJSON(w, http.StatusOK, contact)
}

func (c *ContactController) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := handler.ParseID(r)
	if !ok {
		handler.WriteError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}
	if err := c.ContactService.DeleteContact(r.Context(), id); err != nil {
		handler.WriteServiceError(w, err, "Failed to delete contact")
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]string{"message": "Contact deleted successfully"})
}

// UploadContacts accepts a multipart file in the "csv" or "file" field.
func (c *ContactController) UploadContacts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		handler.WriteError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("csv")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		handler.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	count, err := c.ContactService.Import(r.Context(), file, filepath.Base(header.Filename))
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to insert contacts")
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Successfully imported %d contacts", count),
		"count":   count,
	})
}

// ExportContacts streams every contact as an xlsx workbook.
func (c *ContactController) ExportContacts(w http.ResponseWriter, r *http.Request) {
	buf, err := c.ContactService.Export(r.Context())
	if err != nil {
		handler.WriteServiceError(w, err, "Failed to export contacts")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
