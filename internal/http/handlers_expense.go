package http

import (
	"errors"
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.List(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to list expenses", err, applog.OpList)
		return
	}
	NewJSONResponse().JSON(expenses).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseExpenseBody(w, r)
	if !ok {
		return
	}

	created, err := s.service.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, "Failed to create expense", err, applog.OpCreate)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		JSON(created).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseExpenseID(r)
	if !ok {
		NotFoundError(MsgNotFound).Write(w)
		return
	}

	in, ok := s.parseExpenseBody(w, r)
	if !ok {
		return
	}

	updated, err := s.service.Update(r.Context(), id, in)
	if err != nil {
		s.writeServiceError(w, r, "Failed to update expense", err, applog.OpUpdate)
		return
	}
	NewJSONResponse().JSON(updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseExpenseID(r)
	if !ok {
		NotFoundError(MsgNotFound).Write(w)
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, "Failed to delete expense", err, applog.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// parseExpenseBody writes a 400 and returns false when the body cannot be
// read as JSON or form data.
func (s *Server) parseExpenseBody(w http.ResponseWriter, r *http.Request) (core.ExpenseInput, bool) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body",
			applog.NewFields().
				WithError(err).
				WithErrorType(applog.ErrorTypeValidation).
				ToSlice()...)
		BadRequestError(MsgFieldsRequired).Write(w)
		return core.ExpenseInput{}, false
	}
	return parser.ExpenseInput(), true
}

// writeServiceError maps service errors onto the API's status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &validationErr):
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Rejected expense",
			applog.NewFields().
				WithOperation(op).
				WithError(err).
				WithErrorType(applog.ErrorTypeValidation).
				ToSlice()...)
		BadRequestError(MsgFieldsRequired).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(MsgNotFound).Write(w)
	default:
		s.serverError(w, r, msg, err, op)
	}
}

// serverError logs the cause and answers a generic 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		applog.NewFields().
			WithOperation(op).
			WithError(err).
			WithErrorType(applog.ErrorTypeDatabase).
			ToSlice()...)
	InternalServerError().Write(w)
}
