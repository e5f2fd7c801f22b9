package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"accueil/internal/flow"
	"accueil/internal/flow/handler/mocks"
	"accueil/internal/provider"
	"accueil/internal/registration/models"
	dErrors "accueil/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl   *mocks.MockController
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	mc := gomock.NewController(s.T())
	s.ctrl = mocks.NewMockController(mc)
	s.router = chi.NewRouter()
	New(s.ctrl, slog.New(slog.NewTextHandler(io.Discard, nil)), 1024).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func snapshot(state flow.State) *flow.Snapshot {
	return &flow.Snapshot{
		ID:         "flow-1",
		State:      state,
		Generation: 1,
		UpdatedAt:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (s *HandlerSuite) TestStartAndGet() {
	s.ctrl.EXPECT().Start(gomock.Any()).Return(snapshot(flow.StateUpload), nil)
	rec := s.do(httptest.NewRequest(http.MethodPost, "/flows", nil))
	s.Equal(http.StatusCreated, rec.Code)

	var body SessionResponse
	s.decode(rec, &body)
	s.Equal("flow-1", body.ID)
	s.Equal(flow.StateUpload, body.State)
	s.False(body.HasImage)

	waiting := snapshot(flow.StateWaiting)
	waiting.Image = []byte{1, 2, 3}
	waiting.Failure = &flow.Failure{Category: provider.ErrorNoFormDetected, Message: "none"}
	s.ctrl.EXPECT().Get(gomock.Any(), "flow-1").Return(waiting, nil)
	rec = s.do(httptest.NewRequest(http.MethodGet, "/flows/flow-1", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "AQID")

	s.decode(rec, &body)
	s.True(body.HasImage)
	s.False(body.Extracting)
	s.Require().NotNil(body.Failure)
	s.Equal("no_form_detected", body.Failure.Category)
}

func (s *HandlerSuite) TestGetUnknown() {
	s.ctrl.EXPECT().Get(gomock.Any(), "nope").Return(nil, dErrors.New(dErrors.CodeNotFound, "flow not found"))
	rec := s.do(httptest.NewRequest(http.MethodGet, "/flows/nope", nil))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestSubmitRawImage() {
	s.ctrl.EXPECT().SubmitImage(gomock.Any(), "flow-1", []byte("jpegbytes")).
		Return(snapshot(flow.StateWaiting), nil)

	req := httptest.NewRequest(http.MethodPost, "/flows/flow-1/image", strings.NewReader("jpegbytes"))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := s.do(req)
	s.Equal(http.StatusAccepted, rec.Code)
}

func (s *HandlerSuite) TestSubmitMultipartImage() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "form.jpg")
	s.Require().NoError(err)
	_, _ = part.Write([]byte("jpegbytes"))
	s.Require().NoError(mw.Close())

	s.ctrl.EXPECT().SubmitImage(gomock.Any(), "flow-1", []byte("jpegbytes")).
		Return(snapshot(flow.StateWaiting), nil)

	req := httptest.NewRequest(http.MethodPost, "/flows/flow-1/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.do(req)
	s.Equal(http.StatusAccepted, rec.Code)
}

func (s *HandlerSuite) TestSubmitMultipartWithoutImage() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("note", "x"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/flows/flow-1/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.do(req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSubmitTooLarge() {
	req := httptest.NewRequest(http.MethodPost, "/flows/flow-1/image", bytes.NewReader(make([]byte, 2048)))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := s.do(req)
	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
}

func (s *HandlerSuite) TestImage() {
	s.ctrl.EXPECT().Image(gomock.Any(), "flow-1").Return([]byte{0xff, 0xd8, 0xff, 0xe0}, "", nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/flows/flow-1/image", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("image/jpeg", rec.Header().Get("Content-Type"))
	s.Equal([]byte{0xff, 0xd8, 0xff, 0xe0}, rec.Body.Bytes())
}

func (s *HandlerSuite) TestTransitions() {
	s.ctrl.EXPECT().Cancel(gomock.Any(), "flow-1").Return(snapshot(flow.StateUpload), nil)
	s.ctrl.EXPECT().Retry(gomock.Any(), "flow-1").Return(snapshot(flow.StateUpload), nil)
	s.ctrl.EXPECT().Discard(gomock.Any(), "flow-1").
		Return(nil, dErrors.New(dErrors.CodeInvalidState, "cannot discard while upload"))

	s.Equal(http.StatusOK, s.do(httptest.NewRequest(http.MethodPost, "/flows/flow-1/cancel", nil)).Code)
	s.Equal(http.StatusOK, s.do(httptest.NewRequest(http.MethodPost, "/flows/flow-1/retry", nil)).Code)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/flows/flow-1/discard", nil))
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "invalid_state")
}

func (s *HandlerSuite) TestEditFields() {
	fields := models.FieldMap{models.LabelLastName: "Dupont"}
	result := snapshot(flow.StateResult)
	result.Fields = fields.Normalize()
	s.ctrl.EXPECT().EditFields(gomock.Any(), "flow-1", fields).Return(result, nil)

	req := httptest.NewRequest(http.MethodPut, "/flows/flow-1/fields", strings.NewReader(`{"Nom":"Dupont"}`))
	rec := s.do(req)
	s.Equal(http.StatusOK, rec.Code)

	var body SessionResponse
	s.decode(rec, &body)
	s.Equal("Dupont", body.Fields[models.LabelLastName])
}

func (s *HandlerSuite) TestEditFieldsRejectsLongValue() {
	long := strings.Repeat("a", MaxFieldLength+1)
	req := httptest.NewRequest(http.MethodPut, "/flows/flow-1/fields", strings.NewReader(`{"Nom":"`+long+`"}`))
	rec := s.do(req)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "validation_error")
}

func (s *HandlerSuite) TestSave() {
	s.ctrl.EXPECT().Save(gomock.Any(), "flow-1").
		Return(snapshot(flow.StateUpload), &models.Record{ID: "rec-9"}, nil)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/flows/flow-1/save", nil))
	s.Equal(http.StatusCreated, rec.Code)

	var body SaveResponse
	s.decode(rec, &body)
	s.Equal("rec-9", body.RegistrationID)
	s.Equal(flow.StateUpload, body.Flow.State)
}

func (s *HandlerSuite) TestSaveFailure() {
	s.ctrl.EXPECT().Save(gomock.Any(), "flow-1").
		Return(nil, nil, dErrors.New(dErrors.CodeUnavailable, "record store unavailable"))

	rec := s.do(httptest.NewRequest(http.MethodPost, "/flows/flow-1/save", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *HandlerSuite) TestSaveInProgress() {
	claimed := snapshot(flow.StateResult)
	since := time.Now()
	claimed.SavingSince = &since
	s.ctrl.EXPECT().Get(gomock.Any(), "flow-1").Return(claimed, nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/flows/flow-1", nil))
	s.Equal(http.StatusOK, rec.Code)
	var body SessionResponse
	s.decode(rec, &body)
	s.True(body.Saving)

	s.ctrl.EXPECT().Save(gomock.Any(), "flow-1").
		Return(nil, nil, dErrors.New(dErrors.CodeInvalidState, "a save is already in progress"))
	rec = s.do(httptest.NewRequest(http.MethodPost, "/flows/flow-1/save", nil))
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestClose() {
	s.ctrl.EXPECT().Close(gomock.Any(), "flow-1").Return(nil)
	rec := s.do(httptest.NewRequest(http.MethodDelete, "/flows/flow-1", nil))
	s.Equal(http.StatusNoContent, rec.Code)
}
