package controllers

import (
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/lending"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BookController struct{ *Srv }

func NewBookController(s *Srv) *BookController { return &BookController{Srv: s} }

// POST /api/books
func (bc *BookController) CreateBook(c *gin.Context) {
	var in lending.NewBook
	if !bindJSON(c, &in) {
		return
	}
	b, err := bc.Lending.AddBook(c.Request.Context(), in)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /api/books?q=&category=&page=&size=
func (bc *BookController) ListBooks(c *gin.Context) {
	res, err := bc.Repo.ListBooks(c.Request.Context(), db.BookQuery{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Page:     pageOf(c),
	})
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (bc *BookController) GetBook(c *gin.Context) {
	b, err := bc.Repo.FindBookByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// PUT /api/books/:id 只改描述字段；库存走 /copies
func (bc *BookController) UpdateBook(c *gin.Context) {
	var in struct {
		Title         *string          `json:"title"`
		Author        *string          `json:"author"`
		ISBN          *string          `json:"isbn"`
		Category      *string          `json:"category"`
		PublishedYear *int             `json:"publishedYear"`
		Description   *string          `json:"description"`
		Price         *decimal.Decimal `json:"price"`
	}
	if !bindJSON(c, &in) {
		return
	}
	b, err := bc.Lending.UpdateBook(c.Request.Context(), c.Param("id"), db.BookDetails(in))
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// PUT /api/books/:id/copies
func (bc *BookController) SetCopies(c *gin.Context) {
	var in struct {
		TotalCopies *int `json:"totalCopies" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	b, err := bc.Lending.SetTotalCopies(c.Request.Context(), c.Param("id"), *in.TotalCopies)
	if err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (bc *BookController) DeleteBook(c *gin.Context) {
	if err := bc.Lending.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		app.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
