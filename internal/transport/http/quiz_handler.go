package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quizforge-service/internal/app"
	"quizforge-service/internal/domain"
	"quizforge-service/internal/platform/logger"
)

// maxImageSize caps uploaded quiz-context images at 5 MB.
const maxImageSize = 5 << 20

// QuizHandler serves quiz CRUD and the AI endpoints.
type QuizHandler struct {
	quizzes *app.QuizService
	log     *logger.Logger
}

func NewQuizHandler(quizzes *app.QuizService, log *logger.Logger) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, log: log}
}

type createQuizRequest struct {
	Topic     string            `json:"topic"`
	Level     string            `json:"level"`
	Questions []domain.Question `json:"questions"`
}

type askAIRequest struct {
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
	Explanation  string   `json:"explanation"`
}

// Generate runs the AI pipeline. The request is multipart so an optional
// image can ride along with the topic and level fields.
func (h *QuizHandler) Generate(c *gin.Context) {
	in := app.GenerateInput{
		UserID: currentUserID(c),
		Topic:  c.PostForm("topic"),
		Level:  c.PostForm("level"),
	}

	file, header, err := c.Request.FormFile("image")
	switch {
	case err == http.ErrMissingFile || err == http.ErrNotMultipart:
		// Topic-only generation.
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image upload"})
		return
	default:
		defer file.Close()
		if header.Size > maxImageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image must be at most 5MB"})
			return
		}
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
			return
		}
		in.Image = file
		in.ImageContentType = contentType
	}

	res, err := h.quizzes.Generate(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "generate quiz", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quiz": res.Quiz, "autoGeneratedTopic": res.AutoGeneratedTopic})
}

// Create stores a user-authored quiz.
func (h *QuizHandler) Create(c *gin.Context) {
	var req createQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	quiz, err := h.quizzes.Create(c.Request.Context(), currentUserID(c), req.Topic, req.Level, req.Questions)
	if err != nil {
		h.fail(c, "create quiz", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quiz": quiz})
}

// GetAll lists every quiz, newest first.
func (h *QuizHandler) GetAll(c *gin.Context) {
	quizzes, err := h.quizzes.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, "list quizzes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetMine lists the authenticated user's quizzes.
func (h *QuizHandler) GetMine(c *gin.Context) {
	quizzes, err := h.quizzes.GetByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, "list user quizzes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

// Titles lists id+topic pairs for every quiz.
func (h *QuizHandler) Titles(c *gin.Context) {
	titles, err := h.quizzes.Titles(c.Request.Context())
	if err != nil {
		h.fail(c, "list titles", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"titles": titles})
}

// Get returns one quiz by id.
func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.quizzes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get quiz", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz})
}

// Delete removes a quiz owned by the caller.
func (h *QuizHandler) Delete(c *gin.Context) {
	if err := h.quizzes.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.fail(c, "delete quiz", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quiz deleted"})
}

// AskAI returns a plain-text elaboration for a question.
func (h *QuizHandler) AskAI(c *gin.Context) {
	var req askAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	answer, err := h.quizzes.AskAI(c.Request.Context(), req.QuestionText, req.Options, req.Explanation)
	if err != nil {
		h.fail(c, "ask ai", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (h *QuizHandler) fail(c *gin.Context, op string, err error) {
	h.log.Warn(op+" failed", "error", err)
	respondError(c, err)
}
