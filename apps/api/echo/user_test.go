package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/milestone/core/user"
	testutil "github.com/trezcool/milestone/tests"
)

func Test_userApi_login(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor)
	testutil.CreateUser(t, app.usrRepo, "Gone", "gone@test.com", "Pa$$w0rd!", user.RoleAssessor, false)

	login := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}
	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{name: "unknown email", body: login("nobody@test.com", "Pa$$w0rd!"), wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "wrong password", body: login("assessor@test.com", "wrong"), wantCode: http.StatusBadRequest, wantData: authFailed},
		{
			name: "inactive", body: login("gone@test.com", "Pa$$w0rd!"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "missing password", body: marchallObj(t, map[string]string{"email": "assessor@test.com"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"password": "this field is required"}),
		},
		{name: "success (email is case insensitive)", body: login(" Assessor@Test.com ", "Pa$$w0rd!"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/api/users/login"
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)
			if tt.wantCode == http.StatusOK {
				var res map[string]string
				unmarshal(t, rec, &res)
				assert.NotEmpty(t, res["token"])
			}
		})
	}
}

func Test_userApi_me(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "Consultant", "consultant@test.com", user.RoleConsultant)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "current user", token: getToken(t, usr), wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.path = "/api/users/me"
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "Consultant", "consultant@test.com", user.RoleConsultant)

	rec := app.do(httpTest{method: http.MethodPost, path: "/api/users/token-refresh", token: getToken(t, usr)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res map[string]string
	unmarshal(t, rec, &res)
	assert.NotEmpty(t, res["token"])
}

func Test_userApi_create(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Admin", "admin@test.com", user.RoleAdmin)
	assessor := app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor)

	newUser := func(email, role, pwd string) []byte {
		return marchallObj(t, user.NewUser{Name: "New Consultant", Email: email, Role: role, Password: pwd, PasswordConfirm: pwd})
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, assessor), body: newUser("new@test.com", user.RoleConsultant, "Xq7!pl#Zr"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "email taken", token: getToken(t, admin), body: newUser("assessor@test.com", user.RoleConsultant, "Xq7!pl#Zr"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "invalid role", token: getToken(t, admin), body: newUser("new@test.com", "principal", "Xq7!pl#Zr"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "weak password", token: getToken(t, admin), body: newUser("new@test.com", user.RoleConsultant, "password"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
			}),
		},
		{name: "valid", token: getToken(t, admin), body: newUser("New@Test.com", user.RoleConsultant, "Xq7!pl#Zr"), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/api/users"
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)
			if tt.wantCode == http.StatusCreated {
				var usr user.User
				unmarshal(t, rec, &usr)
				assert.NotZero(t, usr.ID)
				assert.Equal(t, "new@test.com", usr.Email)
				assert.Equal(t, user.RoleConsultant, usr.Role)
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := newTestApp(t)
	now := time.Now()
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.com", "", user.RoleAdmin, true, now)
	consultant := testutil.CreateUser(t, app.usrRepo, "Consultant", "consultant@test.com", "", user.RoleConsultant, true, now.Add(time.Hour))
	assessor := testutil.CreateUser(t, app.usrRepo, "Assessor", "assessor@test.com", "", user.RoleAssessor, false, now.Add(2*time.Hour))
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Admin required", path: "/api/users", token: getToken(t, consultant), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Get all", path: "/api/users", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, assessor, consultant, admin)},
		{name: "search", path: "/api/users?search=CONS", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, consultant)},
		{name: "search (unknown)", path: "/api/users?search=lol", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "role", path: "/api/users?role=admin", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin)},
		{name: "is_active=false", path: "/api/users?is_active=false", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, assessor)},
		{name: "order by name", path: "/api/users?ordering=name", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin, assessor, consultant)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Admin", "admin@test.com", user.RoleAdmin)
	assessor := app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor)
	other := app.createUser(t, "Other", "other@test.com", user.RoleAssessor)

	tests := []httpTest{
		{name: "self", path: "/api/users/" + itoa(assessor.ID), token: getToken(t, assessor), wantCode: http.StatusOK, wantData: marchallObj(t, assessor)},
		{name: "someone else", path: "/api/users/" + itoa(other.ID), token: getToken(t, assessor), wantCode: http.StatusNotFound},
		{name: "admin", path: "/api/users/" + itoa(other.ID), token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{
			name: "non-admin cannot change role", method: http.MethodPut, path: "/api/users/" + itoa(assessor.ID),
			token: getToken(t, assessor), body: marchallObj(t, map[string]string{"role": user.RoleAdmin}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "cannot delete self", method: http.MethodDelete, path: "/api/users/" + itoa(admin.ID),
			token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/users/" + itoa(other.ID), token: getToken(t, admin), wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}

	_, err := app.usrRepo.GetUserByID(context.Background(), other.ID)
	assert.Equal(t, user.ErrNotFound, err)
}
