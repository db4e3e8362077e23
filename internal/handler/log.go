package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/repository"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LogHandler serves audit log queries and exports.
type LogHandler struct {
	Logs       *repository.LogRepository
	EncryptKey string
	Log        logrus.FieldLogger
}

func NewLogHandler(logs *repository.LogRepository, encryptKey string, log logrus.FieldLogger) *LogHandler {
	return &LogHandler{
		Logs:       logs,
		EncryptKey: encryptKey,
		Log:        log,
	}
}

type logResp struct {
	ID         uint              `json:"id"`
	AccountID  *uint             `json:"account_id"`
	Action     string            `json:"action"`
	Resource   string            `json:"resource"`
	ResourceID *uint             `json:"resource_id"`
	Outcome    models.LogOutcome `json:"outcome"`
	IP         string            `json:"ip"`
	UserAgent  string            `json:"user_agent"`
	Detail     string            `json:"detail"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (h *LogHandler) detail(l *models.AuditLog) string {
	if l.Detail == "" && l.DetailEnc != "" {
		return util.DecryptField(h.EncryptKey, l.DetailEnc)
	}
	return l.Detail
}

func (h *LogHandler) toResp(l *models.AuditLog) logResp {
	return logResp{
		ID:         l.ID,
		AccountID:  l.AccountID,
		Action:     l.Action,
		Resource:   l.Resource,
		ResourceID: l.ResourceID,
		Outcome:    l.Outcome,
		IP:         l.IP,
		UserAgent:  l.UserAgent,
		Detail:     h.detail(l),
		CreatedAt:  l.CreatedAt,
	}
}

// filterFrom reads action, status, account_id, start and end (YYYY-MM-DD).
func filterFrom(c *gin.Context) (repository.LogFilter, bool) {
	start, end, err := util.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date range: "+err.Error())
		return repository.LogFilter{}, false
	}

	f := repository.LogFilter{
		Action:  c.Query("action"),
		Outcome: c.Query("status"),
		Start:   start,
		End:     end,
	}
	if s := c.Query("account_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid account_id")
			return repository.LogFilter{}, false
		}
		uid := uint(id)
		f.AccountID = &uid
	}
	return f, true
}

// ListLogs returns one page of audit entries, newest first.
func (h *LogHandler) ListLogs(c *gin.Context) {
	f, ok := filterFrom(c)
	if !ok {
		return
	}
	page, size := util.ParsePage(c.DefaultQuery("page", "1"), c.DefaultQuery("page_size", "20"), 20, 100)

	logs, total, err := h.Logs.List(c.Request.Context(), f, page, size)
	if err != nil {
		h.Log.WithError(err).Error("list audit logs")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]logResp, 0, len(logs))
	for i := range logs {
		items = append(items, h.toResp(&logs[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
