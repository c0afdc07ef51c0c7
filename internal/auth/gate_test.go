package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeAuthorizer struct {
	user  *auth.User
	err   error
	token string
}

func (f *fakeAuthorizer) Authorize(_ context.Context, token, permission string) (*auth.User, error) {
	f.token = token
	if f.err != nil {
		return f.user, f.err
	}
	if !f.user.HasPermission(permission) {
		return f.user, internal.ErrForbidden
	}
	return f.user, nil
}

func (f *fakeAuthorizer) CurrentUser(_ context.Context, token string) (*auth.User, error) {
	f.token = token
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type recordedDecision struct {
	permission string
	outcome    string
}

type recorderStub struct {
	decisions []recordedDecision
}

func (r *recorderStub) RecordDecision(permission, outcome string) {
	r.decisions = append(r.decisions, recordedDecision{permission, outcome})
}

var _ = Describe("Gate", func() {
	var (
		authorizer *fakeAuthorizer
		recorder   *recorderStub
		gate       *auth.Gate
		reached    *auth.User
		protected  http.Handler
	)

	BeforeEach(func() {
		authorizer = &fakeAuthorizer{user: &auth.User{ID: 7, Username: "alice", Permissions: []string{"read_hudson"}}}
		recorder = &recorderStub{}
		gate = auth.NewGate(authorizer, recorder, silentLogger())
		reached = nil
		protected = gate.Require("read_hudson")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached, _ = auth.UserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
	})

	serve := func(h http.Handler, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	errorCode := func(rec *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	It("passes the resolved user downstream", func() {
		rec := serve(protected, "Bearer abc")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reached).NotTo(BeNil())
		Expect(reached.Username).To(Equal("alice"))
		Expect(recorder.decisions).To(ConsistOf(recordedDecision{"read_hudson", auth.OutcomeAllowed}))
	})

	It("accepts the scheme case-insensitively", func() {
		rec := serve(protected, "bearer abc")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(authorizer.token).To(Equal("abc"))
	})

	DescribeTable("rejects missing or malformed headers with 401",
		func(header string) {
			rec := serve(protected, header)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Header().Get("WWW-Authenticate")).To(Equal("Bearer"))
			Expect(errorCode(rec)).To(Equal(string(internal.ErrCodeUnauthenticated)))
			Expect(reached).To(BeNil())
		},
		Entry("absent", ""),
		Entry("basic scheme", "Basic YWxpY2U6cHcx"),
		Entry("scheme only", "Bearer"),
	)

	It("returns 401 when the authorizer cannot resolve the token", func() {
		authorizer.err = internal.ErrUnauthenticated
		rec := serve(protected, "Bearer expired")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(recorder.decisions).To(ConsistOf(recordedDecision{"read_hudson", auth.OutcomeUnauthenticated}))
	})

	It("returns 403 without reaching the handler when the permission is missing", func() {
		authorizer.user.Permissions = []string{"read_user"}
		rec := serve(protected, "Bearer abc")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(rec)).To(Equal(string(internal.ErrCodeForbidden)))
		Expect(reached).To(BeNil())
		Expect(recorder.decisions).To(ConsistOf(recordedDecision{"read_hudson", auth.OutcomeForbidden}))
	})

	It("returns 500 for unexpected failures", func() {
		authorizer.err = errors.New("db down")
		rec := serve(protected, "Bearer abc")
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("db down"))
		Expect(recorder.decisions).To(ConsistOf(recordedDecision{"read_hudson", auth.OutcomeError}))
	})

	Describe("Authenticated", func() {
		It("requires only a valid identity", func() {
			authorizer.user.Permissions = nil
			h := gate.Authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached, _ = auth.UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			rec := serve(h, "Bearer abc")
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(reached.ID).To(Equal(int64(7)))
		})
	})
})
