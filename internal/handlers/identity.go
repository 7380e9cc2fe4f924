// internal/handlers/identity.go
package handlers

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/fanstore-backend/internal/services"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

var clientUserIDType = reflect.TypeOf(uint(0))

// clientUserID accepts a user id sent as a JSON number or a numeric string.
// null and "" leave it unset.
type clientUserID struct {
	Value uint
	Set   bool
}

func (id *clientUserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = clientUserID{}
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*id = clientUserID{}
			return nil
		}
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return &json.UnmarshalTypeError{Value: raw, Type: clientUserIDType}
	}
	*id = clientUserID{Value: uint(v), Set: true}
	return nil
}

// identityFields are the caller credentials carried in request bodies.
type identityFields struct {
	UserID  clientUserID `json:"userId"`
	GuestID string       `json:"guestId"`
}

// identityReader turns request credentials into a services.Identity. A
// bearer token's user always wins; a client-sent userId must match it.
type identityReader struct {
	trustClientUserID bool
}

func (r identityReader) fromBody(c *gin.Context, fields identityFields) (services.Identity, error) {
	return r.resolve(c, fields.UserID, strings.TrimSpace(fields.GuestID))
}

func (r identityReader) fromQuery(c *gin.Context) (services.Identity, error) {
	var userID clientUserID
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || v == 0 {
			return services.Identity{}, &services.ServiceError{Kind: services.ErrValidation, Message: "userId must be a positive integer"}
		}
		userID = clientUserID{Value: uint(v), Set: true}
	}
	return r.resolve(c, userID, strings.TrimSpace(c.Query("guestId")))
}

func (r identityReader) resolve(c *gin.Context, userID clientUserID, guestID string) (services.Identity, error) {
	id := services.Identity{GuestID: guestID}

	if tokenUser, ok := utils.GetUserIDFromContext(c); ok {
		if userID.Set && userID.Value != tokenUser {
			return services.Identity{}, &services.ServiceError{Kind: services.ErrUnauthorized, Message: "userId does not match the authenticated user"}
		}
		id.UserID = &tokenUser
		return id, nil
	}

	if userID.Set {
		if !r.trustClientUserID {
			return services.Identity{}, services.ErrUnauthenticated
		}
		v := userID.Value
		id.UserID = &v
	}

	if guestID != "" {
		c.Set("guest_id", guestID)
	}
	return id, nil
}
