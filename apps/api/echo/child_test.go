package echoapi_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/user"
	testutil "github.com/trezcool/milestone/tests"
)

func childBody(t *testing.T, surname, firstName string) []byte {
	return marchallObj(t, map[string]interface{}{
		"surname":            surname,
		"first_name":         firstName,
		"email":              "Parent@Test.com",
		"date_of_birth":      "2019-03-14",
		"date_of_assessment": "2024-02-01",
		"age_at_consult":     "4 years 11 months",
		"gender":             "Female",
		"mother_name":        "Maria " + surname,
		"mother_contact":     "0917 000 0000",
		"father_name":        "Jose " + surname,
		"father_contact":     "0917 111 1111",
		"speech_therapy":     true,
		"therapies": []map[string]interface{}{
			{"type": "speech", "is_received": true, "therapy_center": "Bright Steps"},
		},
	})
}

func Test_childApi_create(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor))

	t.Run("valid", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodPost, path: "/api/children", token: token, body: childBody(t, "Santos", "Ana")})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var c child.Child
		unmarshal(t, rec, &c)
		assert.NotZero(t, c.ID)
		assert.Equal(t, "parent@test.com", c.Email)
		assert.Equal(t, child.GenderFemale, c.Gender)
		assert.Equal(t, "2019-03-14", c.DateOfBirth.String())
		require.Len(t, c.Therapies, 1)
		assert.Equal(t, c.ID, c.Therapies[0].ChildID)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := app.do(httpTest{
			method: http.MethodPost, path: "/api/children", token: token,
			body: marchallObj(t, map[string]string{"surname": "Santos", "gender": "unknown"}),
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		var fields map[string]string
		unmarshal(t, rec, &fields)
		for _, f := range []string{"first_name", "date_of_birth", "date_of_assessment", "mother_name", "father_contact"} {
			assert.Equal(t, "this field is required", fields[f], f)
		}
		assert.Contains(t, fields, "gender")
		assert.NotContains(t, fields, "surname")
	})
}

func Test_childApi_query(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor))

	santos := testutil.CreateChild(t, app.childRepo, "Ana", "Santos", "")
	cruz := testutil.CreateChild(t, app.childRepo, "Leo", "Cruz", "")
	reyes := testutil.CreateChild(t, app.childRepo, "Mia", "Reyes", "")

	tests := []struct {
		name    string
		path    string
		wantIDs []int
	}{
		{name: "default (surname)", path: "/api/children", wantIDs: []int{cruz.ID, reyes.ID, santos.ID}},
		{name: "ordering", path: "/api/children?ordering=-first_name", wantIDs: []int{reyes.ID, cruz.ID, santos.ID}},
		{name: "unknown ordering field ignored", path: "/api/children?ordering=password", wantIDs: []int{cruz.ID, reyes.ID, santos.ID}},
		{name: "search first name", path: "/api/children?search=LEO", wantIDs: []int{cruz.ID}},
		{name: "search mother name", path: "/api/children?search=maria%20reyes", wantIDs: []int{reyes.ID}},
		{name: "search (unknown)", path: "/api/children?search=zzz", wantIDs: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(httpTest{path: tt.path, token: token})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var children []child.Child
			unmarshal(t, rec, &children)
			ids := make([]int, 0, len(children))
			for _, c := range children {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func Test_childApi_detail(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor))
	kid := testutil.CreateChild(t, app.childRepo, "Ana", "Santos", "")
	path := "/api/children/" + itoa(kid.ID)

	notFound := marchallObj(t, httpErr{Error: child.ErrNotFound.Error()})

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "retrieve", path: path, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, kid)},
		{name: "retrieve (unknown)", path: "/api/children/9999", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "assessments (none)", path: path + "/assessments", token: token, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "assessments (unknown child)", path: "/api/children/9999/assessments", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "delete", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNoContent},
		{name: "retrieve (deleted)", path: path, token: token, wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_childApi_update(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor))
	kid := testutil.CreateChild(t, app.childRepo, "Ana", "Santos", "")

	rec := app.do(httpTest{method: http.MethodPut, path: "/api/children/" + itoa(kid.ID), token: token, body: childBody(t, "Santos-Cruz", "Ana Maria")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var c child.Child
	unmarshal(t, rec, &c)
	assert.Equal(t, kid.ID, c.ID)
	assert.Equal(t, "Santos-Cruz", c.Surname)
	assert.Equal(t, "Ana Maria", c.FirstName)
	assert.True(t, c.SpeechTherapy)
	require.Len(t, c.Therapies, 1)
	assert.Equal(t, "Bright Steps", c.Therapies[0].TherapyCenter)
}

func Test_childApi_consentForm(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, app.createUser(t, "Assessor", "assessor@test.com", user.RoleAssessor))
	kid := testutil.CreateChild(t, app.childRepo, "Ana", "Santos", "")

	rec := app.do(httpTest{path: "/api/children/" + itoa(kid.ID) + "/consent-form", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="consent-form-Santos.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}
