package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"library-service/internal/adapter/gin/middleware"
	"library-service/internal/adapter/session"
	"library-service/internal/config"
	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/library"
)

// LibraryHandler serves the home, issue, return and history pages.
type LibraryHandler struct {
	base
	uc library.Service
}

// NewLibraryHandler creates a new LibraryHandler instance.
func NewLibraryHandler(uc library.Service, sessions session.Store, cookie config.SessionConfig, log *zap.Logger) *LibraryHandler {
	return &LibraryHandler{
		base: base{sessions: sessions, cookie: cookie, log: log},
		uc:   uc,
	}
}

// BookForm represents the hidden book id submitted by the issue and return forms.
type BookForm struct {
	BookID int64 `form:"book_id" binding:"required"`
}

// Home renders the landing page. It also backs the dispatcher fallback for
// unknown action names.
func (h *LibraryHandler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", nil)
}

// IssuePage handles GET /issue: books with available copies the user has not
// already checked out, optionally filtered by title.
func (h *LibraryHandler) IssuePage(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	query := c.Query("q")

	books, err := h.uc.ListIssuable(c.Request.Context(), sess.UserID, query)
	if err != nil {
		h.flashForError(c, err)
		books = []domain.Book{}
	}

	h.render(c, http.StatusOK, "issue.html", gin.H{
		"Books": books,
		"Query": query,
	})
}

// Issue handles POST /issue.
func (h *LibraryHandler) Issue(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	var form BookForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Warn("invalid issue form", zap.Error(err))
		h.flash(c, flashError, "Select a book to issue")
		c.Redirect(http.StatusFound, "/issue")
		return
	}

	err := h.uc.IssueBook(c.Request.Context(), library.IssueRequest{
		UserID: sess.UserID,
		BookID: form.BookID,
	})
	if err != nil {
		h.flashForError(c, err)
	} else {
		h.flash(c, flashSuccess, "Book issued successfully")
	}

	c.Redirect(http.StatusFound, "/issue")
}

// ReturnPage handles GET /return_item: exactly the books the user has
// checked out.
func (h *LibraryHandler) ReturnPage(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	books, err := h.uc.ListReturnable(c.Request.Context(), sess.UserID)
	if err != nil {
		h.flashForError(c, err)
		books = []domain.Book{}
	}

	h.render(c, http.StatusOK, "return.html", gin.H{"Books": books})
}

// Return handles POST /return_item.
func (h *LibraryHandler) Return(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	var form BookForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Warn("invalid return form", zap.Error(err))
		h.flash(c, flashError, "Select a book to return")
		c.Redirect(http.StatusFound, "/return_item")
		return
	}

	err := h.uc.ReturnBook(c.Request.Context(), library.ReturnRequest{
		UserID: sess.UserID,
		BookID: form.BookID,
	})
	if err != nil {
		h.flashForError(c, err)
	} else {
		h.flash(c, flashSuccess, "Book returned successfully")
	}

	c.Redirect(http.StatusFound, "/return_item")
}

// History handles GET /history with a `page` query parameter. Missing or
// malformed values fall back to the first page.
func (h *LibraryHandler) History(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	resp, err := h.uc.History(c.Request.Context(), library.HistoryRequest{
		UserID: sess.UserID,
		Page:   page,
	})
	if err != nil {
		h.flashForError(c, err)
		h.render(c, http.StatusOK, "history.html", gin.H{"Items": []domain.IssuedItem{}})
		return
	}

	h.render(c, http.StatusOK, "history.html", gin.H{
		"Items":      resp.Items,
		"Pagination": resp.Pagination,
	})
}
