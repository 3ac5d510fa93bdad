package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestResponseWriter(t *testing.T) {
	Convey("Given a wrapped recorder", t, func() {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

		Convey("When the header is written twice", func() {
			rw.WriteHeader(http.StatusCreated)
			rw.WriteHeader(http.StatusInternalServerError)

			Convey("Then the first status is kept", func() {
				So(rw.statusCode, ShouldEqual, http.StatusCreated)
				So(rec.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When the body is written before any header", func() {
			_, err := rw.Write([]byte("ok"))
			So(err, ShouldBeNil)
			rw.WriteHeader(http.StatusNotFound)

			Convey("Then the implicit 200 stands", func() {
				So(rw.statusCode, ShouldEqual, http.StatusOK)
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("Then it unwraps to the recorder", func() {
			So(rw.Unwrap(), ShouldEqual, rec)
		})

		Convey("Then a response controller can flush through it", func() {
			So(http.NewResponseController(rw).Flush(), ShouldBeNil)
			So(rec.Flushed, ShouldBeTrue)
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped with metrics", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, "sessions_create")

		Convey("Then the handler status passes through", func() {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("Then error statuses map to error types", func() {
			So(getErrorType(http.StatusTooManyRequests), ShouldEqual, "too_many_sessions")
			So(getErrorType(http.StatusNotFound), ShouldEqual, "not_found")
			So(getErrorType(http.StatusConflict), ShouldEqual, "client_error")
			So(getErrorType(http.StatusBadGateway), ShouldEqual, "server_error")
		})
	})
}
