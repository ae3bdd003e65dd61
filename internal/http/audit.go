package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
)

const activityPageSize = 25

// ActivityController shows the current user's authentication history.
type ActivityController struct {
	store            ActivityStore
	showErrorDetails bool
}

func NewActivityController(store ActivityStore, showErrorDetails bool) *ActivityController {
	return &ActivityController{
		store:            store,
		showErrorDetails: showErrorDetails,
	}
}

// ActivityPage renders the audit log of the signed-in user
// GET /activity
func (ac *ActivityController) ActivityPage(c *gin.Context) {
	user, err := auth.RequireUser(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login?next=/activity")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * activityPageSize

	events, total, err := ac.store.GetEvents(c.Request.Context(), user.ID, activityPageSize, offset)
	if err != nil {
		auth.RenderErrorPage(c, http.StatusServiceUnavailable, "Activity could not be loaded.", err, ac.showErrorDetails)
		return
	}

	totalPages := (int(total) + activityPageSize - 1) / activityPageSize
	if totalPages < 1 {
		totalPages = 1
	}

	c.HTML(http.StatusOK, "activity.html", auth.PageData(c, gin.H{
		"Title":       "Activity",
		"Events":      events,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"TotalEvents": total,
		"PrevPage":    page - 1,
		"NextPage":    page + 1,
	}))
}
