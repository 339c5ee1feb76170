// Package student contains the HTTP handlers for roster records.
//
// Each exported function is a factory: it receives its dependencies once
// at route registration and returns the http.HandlerFunc that serves
// every request.
//
//	r.Post("/add-student", student.New(store, sections, hasher))
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/roster-api/internal/auth"
	"github.com/aanand-mishra/roster-api/internal/section"
	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
	"github.com/aanand-mishra/roster-api/internal/utils/response"
	"github.com/aanand-mishra/roster-api/internal/validation"
)

const (
	MsgStudentAdded    = "Student added"
	MsgStudentRemoved  = "Student removed"
	MsgStudentNotFound = "Student not found"
	MsgInvalidSection  = "Invalid section"
	MsgInvalidBody     = "Invalid request body"
	MsgAddFailed       = "Error adding student"
	MsgLoginFailed     = "Error logging in"
	MsgRemoveFailed    = "Error removing student"
	MsgFetchFailed     = "Error fetching students"
	MsgFetchPRNsFailed = "Error fetching PRNs"
)

const maxRequestBodyLength = 1 << 20

// New handles POST /add-student.
//
// Request body (JSON), serialNumber is assigned server-side:
//
//	{ "prn": "1234567890123456", "password": "...", "mobile": "...",
//	  "branch": "CS", "year": "2", "section": "A" }
//
// Responses (text/plain):
//
//	200 Student added
//	400 All fields are required. | PRN must be exactly 16 digits long. | Invalid section
//	500 Error adding student
func New(store storage.Storage, sections *section.Set, hasher *auth.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("adding a student")

		// ── Step 1: Decode JSON body into a Student ──────────────────────
		var student types.Student
		err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyLength)).Decode(&student)
		if err != nil {
			// an empty or unreadable body is missing every field
			slog.Debug("add student: decode body", slog.String("error", err.Error()))
			response.WriteText(w, http.StatusBadRequest, validation.MsgFieldsRequired)
			return
		}

		// ── Step 2: Validate required fields and PRN ─────────────────────
		if err := validation.Student(student); err != nil {
			response.WriteText(w, http.StatusBadRequest, err.Error())
			return
		}

		// ── Step 3: Resolve the section ──────────────────────────────────
		sec, err := sections.Resolve(student.Section)
		if err != nil {
			response.WriteText(w, http.StatusBadRequest, MsgInvalidSection)
			return
		}

		// ── Step 4: Replace the password with its hash ───────────────────
		student.Password, err = hasher.Hash(student.Password)
		if err != nil {
			slog.Error("error hashing password", slog.String("error", err.Error()))
			response.WriteText(w, http.StatusInternalServerError, MsgAddFailed)
			return
		}

		// ── Step 5: Persist; storage assigns serialNumber ────────────────
		created, err := store.CreateStudent(r.Context(), sec, student)
		if err != nil {
			slog.Error("error adding student",
				slog.String("section", sec.String()),
				slog.String("error", err.Error()))
			response.WriteText(w, http.StatusInternalServerError, MsgAddFailed)
			return
		}

		slog.Info("student added",
			slog.String("section", created.Section),
			slog.Int64("serial_number", created.SerialNumber))
		response.WriteText(w, http.StatusOK, MsgStudentAdded)
	}
}

// Login handles POST /login.
//
// Sections are searched in configured order and the first record whose
// PRN matches and whose stored hash accepts the password wins. The
// response does not say which section matched.
//
//	{ "prn": "1234567890123456", "password": "..." }  ->  { "success": true }
func Login(store storage.Storage, sections *section.Set, hasher *auth.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Decode credentials ───────────────────────────────────
		// An empty body decodes to zero credentials and fails below.
		var creds types.Credentials
		err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyLength)).Decode(&creds)
		if err != nil && !errors.Is(err, io.EOF) {
			response.WriteText(w, http.StatusBadRequest, MsgInvalidBody)
			return
		}

		slog.Info("login attempt", slog.String("prn", creds.PRN))

		if creds.PRN == "" || creds.Password == "" {
			response.WriteJSON(w, http.StatusOK, types.LoginResult{Success: false})
			return
		}

		// ── Step 2: Search sections in configured order ──────────────────
		for _, sec := range sections.All() {
			candidates, err := store.GetStudentsByPRN(r.Context(), sec, creds.PRN)
			if err != nil {
				slog.Error("error logging in",
					slog.String("section", sec.String()),
					slog.String("error", err.Error()))
				response.WriteText(w, http.StatusInternalServerError, MsgLoginFailed)
				return
			}

			for _, c := range candidates {
				err := hasher.Verify(c.Password, creds.Password)
				if err == nil {
					response.WriteJSON(w, http.StatusOK, types.LoginResult{Success: true})
					return
				}
				if !errors.Is(err, auth.ErrPasswordMismatch) {
					slog.Warn("stored password is not a valid hash",
						slog.String("section", sec.String()),
						slog.Int64("serial_number", c.SerialNumber))
				}
			}
		}

		// ── Step 3: No section matched ───────────────────────────────────
		response.WriteJSON(w, http.StatusOK, types.LoginResult{Success: false})
	}
}

// Remove handles DELETE /remove-student/{prn} with body { "section": "A" }.
//
//	200 Student removed
//	400 Invalid section
//	404 Student not found
//	500 Error removing student
func Remove(store storage.Storage, sections *section.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Read PRN from the path, section from the body ────────
		prn := chi.URLParam(r, "prn")

		var req types.RemoveRequest
		err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyLength)).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			response.WriteText(w, http.StatusBadRequest, MsgInvalidBody)
			return
		}

		slog.Info("removing a student",
			slog.String("prn", prn),
			slog.String("section", req.Section))

		// ── Step 2: Resolve the section ──────────────────────────────────
		sec, err := sections.Resolve(req.Section)
		if err != nil {
			response.WriteText(w, http.StatusBadRequest, MsgInvalidSection)
			return
		}

		// ── Step 3: Delete one matching record ───────────────────────────
		err = store.DeleteStudent(r.Context(), sec, prn)
		if errors.Is(err, storage.ErrStudentNotFound) {
			response.WriteText(w, http.StatusNotFound, MsgStudentNotFound)
			return
		}
		if err != nil {
			slog.Error("error removing student",
				slog.String("prn", prn),
				slog.String("error", err.Error()))
			response.WriteText(w, http.StatusInternalServerError, MsgRemoveFailed)
			return
		}

		slog.Info("student removed", slog.String("prn", prn))
		response.WriteText(w, http.StatusOK, MsgStudentRemoved)
	}
}

// GetList handles GET /students?branch=CS&year=2&section=A.
//
// Returns a JSON array (never null) ordered by serialNumber. A branch or
// year key that is absent from the query is not used as a filter; one that
// is present matches exactly, so ?branch= only matches an empty branch.
func GetList(store storage.Storage, sections *section.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Build the filter from the query string ───────────────
		q := r.URL.Query()
		filter := types.StudentFilter{Branch: queryParam(q, "branch"), Year: queryParam(q, "year")}

		// ── Step 2: Resolve the section ──────────────────────────────────
		sec, err := sections.Resolve(q.Get("section"))
		if err != nil {
			response.WriteText(w, http.StatusBadRequest, MsgInvalidSection)
			return
		}

		// ── Step 3: Query and return the records ─────────────────────────
		students, err := store.GetStudents(r.Context(), sec, filter)
		if err != nil {
			slog.Error("error fetching students", slog.String("error", err.Error()))
			response.WriteText(w, http.StatusInternalServerError, MsgFetchFailed)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// GetPRNs handles GET /prns?section=A and returns [{ "prn": "..." }, ...].
func GetPRNs(store storage.Storage, sections *section.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sec, err := sections.Resolve(r.URL.Query().Get("section"))
		if err != nil {
			response.WriteText(w, http.StatusBadRequest, MsgInvalidSection)
			return
		}

		prns, err := store.GetPRNs(r.Context(), sec)
		if err != nil {
			slog.Error("error fetching PRNs", slog.String("error", err.Error()))
			response.WriteText(w, http.StatusInternalServerError, MsgFetchPRNsFailed)
			return
		}

		response.WriteJSON(w, http.StatusOK, prns)
	}
}

// queryParam returns nil when key is absent from q.
func queryParam(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}
