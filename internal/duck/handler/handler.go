package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pikecape/duck-service/internal/duck"
	"github.com/pikecape/duck-service/internal/duck/service"
	"github.com/pikecape/duck-service/internal/duck/snapshot"
)

// DeletedCountHeader carries the number of removed ducks on a 204 response.
const DeletedCountHeader = "X-Deleted-Count"

const maxNameLen = 128

type nameRule struct {
	Name string `binding:"required,max=128"`
}

// RegisterDuckRoutes mounts the duck CRUD routes on r.
func RegisterDuckRoutes(r gin.IRouter, svc service.Service) {
	r.GET("", func(c *gin.Context) {
		list, err := svc.FindAll(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/:uid", func(c *gin.Context) {
		d, err := svc.FindByUID(c.Request.Context(), c.Param("uid"))
		if err != nil {
			respondError(c, err)
			return
		}
		// a missing duck is not an error; the body is null
		c.JSON(http.StatusOK, d)
	})

	r.POST("", func(c *gin.Context) {
		fields, err := bindFields(c, true)
		if err != nil {
			respondError(c, err)
			return
		}
		created, err := svc.Create(c.Request.Context(), fields)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	r.PUT("/:uid", func(c *gin.Context) {
		fields, err := bindFields(c, false)
		if err != nil {
			respondError(c, err)
			return
		}
		res, err := svc.Update(c.Request.Context(), c.Param("uid"), fields)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	r.DELETE("/:uid", func(c *gin.Context) {
		res, err := svc.DeleteByUID(c.Request.Context(), c.Param("uid"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header(DeletedCountHeader, strconv.FormatInt(res.DeletedCount, 10))
		c.Status(http.StatusNoContent)
	})
}

// Exporter produces duck snapshots on demand.
type Exporter interface {
	Export(ctx context.Context) (*snapshot.Snapshot, error)
}

// RegisterSnapshotRoutes mounts POST /admin/snapshots on r.
func RegisterSnapshotRoutes(r gin.IRouter, exp Exporter) {
	r.POST("/admin/snapshots", func(c *gin.Context) {
		snap, err := exp.Export(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, snap)
	})
}

// bindFields decodes the request body into duck fields and applies the
// boundary rules shared by create and update.
func bindFields(c *gin.Context, create bool) (duck.Fields, error) {
	var fields duck.Fields
	if err := c.ShouldBindBodyWith(&fields, binding.JSON); err != nil {
		return nil, duck.BadRequest("request body must be a JSON object")
	}
	if fields == nil {
		return nil, duck.BadRequest("request body must be a JSON object")
	}
	if _, ok := fields[duck.IDField]; ok {
		return nil, duck.BadRequest("%s cannot be set by the client", duck.IDField)
	}
	if !create && len(fields) == 0 {
		return nil, duck.BadRequest("at least one field is required")
	}

	name, ok := fields["name"]
	if !ok {
		if create {
			return nil, duck.BadRequest("name is required")
		}
		return fields, nil
	}
	s, isString := name.(string)
	if !isString {
		return nil, duck.BadRequest("name must be a string")
	}
	if err := binding.Validator.ValidateStruct(nameRule{Name: s}); err != nil {
		return nil, duck.BadRequest("name must be a non-empty string of at most %d characters", maxNameLen)
	}
	return fields, nil
}

// respondError is the single place failures turn into responses: the status
// of a *duck.Error, otherwise 500, with the message as a JSON string body.
func respondError(c *gin.Context, err error) {
	status, msg := duck.StatusOf(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, msg)
}
