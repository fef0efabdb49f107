package backend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mssentry/mssentry/audit"
	"github.com/mssentry/mssentry/model"
)

func (a *API) getOperation(c *gin.Context) {
	op, err := a.Audit.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operation": op})
}

func (a *API) listOperations(c *gin.Context) {
	f := audit.Filter{
		Resource:       model.ResourceType(c.Query("resource")),
		ServerInstance: c.Query("server_instance"),
		Status:         model.OperationStatus(c.Query("status")),
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "bad from timestamp: " + err.Error()})
			return
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "bad to timestamp: " + err.Error()})
			return
		}
		f.To = t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorBody{Error: "bad limit"})
			return
		}
		f.Limit = n
	}

	ops, err := a.Audit.Find(c.Request.Context(), f)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operations": ops})
}
