package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strconv"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/milestone/apps/api/echo"
	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/dashboard"
	"github.com/trezcool/milestone/core/evaluation"
	"github.com/trezcool/milestone/core/skill"
	"github.com/trezcool/milestone/core/user"
	docsvc "github.com/trezcool/milestone/services/document"
	emailsvc "github.com/trezcool/milestone/services/email"
	dummydb "github.com/trezcool/milestone/storage/database/dummy"
	testutil "github.com/trezcool/milestone/tests"
)

var (
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	logger = testutil.NewLogger(conf)

	validate = validator.New()
	translator = core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	assessment.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	os.Exit(m.Run())
}

// testApp is a server backed by a fresh in-memory database.
type testApp struct {
	server     *echoapi.Server
	usrRepo    user.Repository
	skillRepo  skill.Repository
	childRepo  child.Repository
	assessRepo assessment.Repository
	evalRepo   evaluation.Repository
	mailSvc    *emailsvc.ConsoleServiceMock
}

func newTestApp(t *testing.T) *testApp {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	app := &testApp{
		usrRepo:    dummydb.NewUserRepository(db),
		skillRepo:  dummydb.NewSkillRepository(db),
		childRepo:  dummydb.NewChildRepository(db),
		assessRepo: dummydb.NewAssessmentRepository(db),
		evalRepo:   dummydb.NewEvaluationRepository(db),
		mailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
	}
	renderer := docsvc.NewRenderer()
	dashSvc := dashboard.NewService(
		dummydb.NewDashboardRepository(db),
		evaluation.StatusReadyForEvaluation, evaluation.StatusCompleted,
	)

	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        user.NewService(app.usrRepo, app.mailSvc, conf),
		SkillSvc:       skill.NewService(app.skillRepo),
		ChildSvc:       child.NewService(app.childRepo),
		AssessmentSvc:  assessment.NewService(app.assessRepo, app.childRepo, app.skillRepo),
		EvaluationSvc:  evaluation.NewService(app.evalRepo, app.assessRepo, app.childRepo, renderer, app.mailSvc),
		DashboardSvc:   dashSvc,
		ConsentForms:   renderer,
	})
	return app
}

func (app *testApp) createUser(t *testing.T, name, email, role string) user.User {
	return testutil.CreateUser(t, app.usrRepo, name, email, "Pa$$w0rd!", role, true)
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	app.server.ServeHTTP(rec, req)
	return rec
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
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCode(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	checkCode(t, tt, rec)
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
