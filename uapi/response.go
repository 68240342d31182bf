package uapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"connectx/apperr"

	"github.com/infinitybotlist/eureka/jsonimpl"
	"go.uber.org/zap"
)

type HttpResponse struct {
	// Data is the data to be sent to the client
	Data string
	// Optional, can be used in place of Data
	Bytes []byte
	// Json body to be sent to the client
	Json any
	// Headers to set
	Headers map[string]string
	// Cookies to set
	Cookies []*http.Cookie
	// Status is the HTTP status code to send
	Status int
}

func respond(ctx context.Context, w http.ResponseWriter, data chan HttpResponse) {
	select {
	case <-ctx.Done():
		return
	case msg, ok := <-data:
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(State.Constants.InternalServerError))
			return
		}

		for k, v := range msg.Headers {
			w.Header().Set(k, v)
		}

		for _, c := range msg.Cookies {
			http.SetCookie(w, c)
		}

		if msg.Json != nil {
			bytes, err := jsonimpl.Marshal(msg.Json)

			if err != nil {
				State.Logger.Error("[uapi.respond] Failed to marshal JSON response", zap.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(State.Constants.InternalServerError))
				return
			}

			msg.Json = nil
			msg.Bytes = bytes
		}

		if msg.Status == 0 {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(msg.Status)
		}

		if len(msg.Bytes) > 0 {
			w.Write(msg.Bytes)
		}

		w.Write([]byte(msg.Data))
	}
}

// Creates a default HTTP response based on the status code
// 200 is treated as 204 No Content
func DefaultResponse(statusCode int) HttpResponse {
	switch statusCode {
	case http.StatusForbidden:
		return HttpResponse{
			Status: statusCode,
			Data:   State.Constants.Forbidden,
		}
	case http.StatusUnauthorized:
		return HttpResponse{
			Status: statusCode,
			Data:   State.Constants.Unauthorized,
		}
	case http.StatusNotFound:
		return HttpResponse{
			Status: statusCode,
			Data:   State.Constants.ResourceNotFound,
		}
	case http.StatusBadRequest:
		return HttpResponse{
			Status: statusCode,
			Data:   State.Constants.BadRequest,
		}
	case http.StatusInternalServerError:
		return HttpResponse{
			Status: statusCode,
			Data:   State.Constants.InternalServerError,
		}
	case http.StatusMethodNotAllowed:
		return HttpResponse{
			Status: statusCode,
			Data:   State.Constants.MethodNotAllowed,
		}
	case http.StatusNoContent, http.StatusOK:
		return HttpResponse{
			Status: http.StatusNoContent,
		}
	}

	return HttpResponse{
		Status: statusCode,
		Data:   State.Constants.InternalServerError,
	}
}

// ErrorResponse maps an error from the auth manager or a storage engine to a
// response. Internal error text never reaches the client.
func ErrorResponse(op string, err error) HttpResponse {
	var ve *apperr.ValidationError
	var cv *apperr.ConstraintViolation
	var ice *apperr.InternalConsistencyError

	status := apperr.Status(err)

	switch {
	case errors.As(err, &ve):
		return HttpResponse{
			Status: status,
			Json:   State.DefaultResponder.New("Invalid request body", ve.Fields),
		}
	case errors.As(err, &cv):
		return HttpResponse{
			Status: status,
			Json:   State.DefaultResponder.New(cv.Message, map[string]string{"constraint": cv.Constraint}),
		}
	case errors.Is(err, apperr.ErrAuthentication):
		return HttpResponse{
			Status: status,
			Json:   State.DefaultResponder.New(apperr.ErrAuthentication.Error(), nil),
		}
	case errors.As(err, &ice):
		State.Logger.Error("["+op+"] Internal consistency error", zap.String("entity", ice.Entity), zap.String("id", ice.ID), zap.String("detail", ice.Detail))
		return DefaultResponse(http.StatusInternalServerError)
	case status == http.StatusInternalServerError:
		State.Logger.Error("["+op+"] Request failed", zap.Error(err))
	}

	return DefaultResponse(status)
}

// DecodeBody reads a JSON object body into a raw mapping for schema validation
func DecodeBody(r *http.Request) (map[string]any, HttpResponse, bool) {
	defer r.Body.Close()

	bodyBytes, err := io.ReadAll(r.Body)

	if err != nil {
		State.Logger.Error("[uapi/DecodeBody] Failed to read body", zap.Error(err), zap.Int("size", len(bodyBytes)))
		return nil, DefaultResponse(http.StatusInternalServerError), false
	}

	if len(bodyBytes) == 0 {
		return nil, HttpResponse{
			Status: http.StatusBadRequest,
			Data:   State.Constants.BodyRequired,
		}, false
	}

	var raw map[string]any
	err = jsonimpl.Unmarshal(bodyBytes, &raw)

	if err != nil || raw == nil {
		return nil, HttpResponse{
			Status: http.StatusBadRequest,
			Json:   State.DefaultResponder.New("Invalid JSON, expected an object", nil),
		}, false
	}

	return raw, HttpResponse{}, true
}
