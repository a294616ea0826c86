package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
	testutil "github.com/trezcool/darasa/tests"
)

var (
	conf    *core.Config
	usrRepo user.Repository
	asgRepo assignment.Repository
	subRepo submission.Repository
	usrSvc  *user.Service
	asgSvc  *assignment.Service
	subSvc  *submission.Service
	maint   *database.Maintenance

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errExpiredToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errBadLogin     = httpErr{Error: "invalid username or password"}
)

func setup(t *testing.T) Server {
	// set up DB & repos
	conf = testutil.NewConfig()
	db := testutil.PrepareDB(t, conf)
	usrRepo = sqlxrepos.NewUserRepository(db)
	asgRepo = sqlxrepos.NewAssignmentRepository(db)
	subRepo = sqlxrepos.NewSubmissionRepository(db)
	maint = database.NewMaintenance(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewNopLogger()
	usrSvc = user.NewService(usrRepo, mailSvc, logger, conf)
	asgSvc = assignment.NewService(asgRepo)
	subSvc = submission.NewService(subRepo, asgRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.InitTokenGen(conf)

	// set up server
	return NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		AssignmentSvc:  asgSvc,
		SubmissionSvc:  subSvc,
		Maintenance:    maint,
		MailSvc:        mailSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
}

func newTranslator() ut.Translator {
	enLocale := en.New()
	universal := ut.New(enLocale, enLocale)
	translator, _ := universal.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// newAuthRequest builds a request carrying the session token the way clients
// do: in the authToken cookie.
func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "authToken", Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr, conf)
	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// getExpiredToken signs claims whose expiry is already in the past.
func getExpiredToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr, conf)
	claims.ExpiresAt = claims.IssuedAt - 60
	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("getExpiredToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
