package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

// annotate mirrors what the list queries add to each row.
func annotate(sub submission.Submission, usr user.User, asg assignment.Assignment) submission.Submission {
	sub.Username = usr.Username
	sub.AssignmentTitle = asg.Title
	return sub
}

func Test_submissionApi_create(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "teach", "", user.RoleInstructor, "CS101")
	student := testutil.CreateUser(t, usrRepo, "hero", "", user.RoleStudent, "CS101")
	asg := testutil.CreateAssignment(t, asgRepo, "HW1", "CS101")
	locked := testutil.CreateAssignment(t, asgRepo, "Old HW", "CS101")
	if err := asgRepo.LockAssignment(locked.ID); err != nil {
		t.Fatalf("LockAssignment() failed: %v", err)
	}
	studentToken := getToken(t, student)

	reqMsg := "this field is required"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students only", token: getToken(t, instructor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", token: studentToken, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"assignment_id": reqMsg, "code": reqMsg}),
		},
		{
			name: "unknown assignment", token: studentToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, submission.NewSubmission{AssignmentID: 1999, Code: "print('hi')"}),
			wantData: marchallObj(t, map[string]string{"assignment_id": "assignment not found"}),
		},
		{
			name: "locked assignments reject submissions", token: studentToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, submission.NewSubmission{AssignmentID: locked.ID, Code: "print('hi')"}),
			wantData: marchallObj(t, httpErr{Error: "assignment is locked"}),
		},
		{
			name: "submit OK", token: studentToken, wantCode: http.StatusCreated,
			body: marchallObj(t, submission.NewSubmission{AssignmentID: asg.ID, Code: "print('hi')"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/dashboard/submit"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData submission.Submission
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.ID == 0 {
					t.Error("failed! no ID assigned")
				}
				if respData.UserID != student.ID { // owner comes from the token
					t.Errorf("failed! user_id = %d; want %d", respData.UserID, student.ID)
				}
				if respData.Graded {
					t.Error("failed! new submission must start ungraded")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_submissionApi_ownListingAndStatus(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "hero", "", user.RoleStudent, "CS101")
	other := testutil.CreateUser(t, usrRepo, "rival", "", user.RoleStudent, "CS101")
	asg1 := testutil.CreateAssignment(t, asgRepo, "HW1", "CS101")
	asg2 := testutil.CreateAssignment(t, asgRepo, "HW2", "CS101")
	ownSub := testutil.CreateSubmission(t, subRepo, asg1, student, "print('hi')")
	_ = testutil.CreateSubmission(t, subRepo, asg1, other, "print('yo')")
	studentToken := getToken(t, student)

	tests := []httpTest{
		{
			name: "own submissions only", method: http.MethodGet, path: "/dashboard/submissions", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, annotate(ownSub, student, asg1)),
		},
		{
			name: "status: submitted", method: http.MethodGet,
			path: fmt.Sprintf("/dashboard/assignments/status?assignmentId=%d", asg1.ID), token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, StatusResponse{Submitted: true}),
		},
		{
			name: "status: not submitted", method: http.MethodGet,
			path: fmt.Sprintf("/dashboard/assignments/status?assignmentId=%d", asg2.ID), token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, StatusResponse{Submitted: false}),
		},
		{
			name: "status: assignmentId required", method: http.MethodGet,
			path: "/dashboard/assignments/status", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_submissionApi_adminGrade(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "boss", "", user.RoleAdmin, "")
	student := testutil.CreateUser(t, usrRepo, "hero", "", user.RoleStudent, "CS101")
	asg := testutil.CreateAssignment(t, asgRepo, "HW1", "CS101")
	sub := testutil.CreateSubmission(t, subRepo, asg, student, "print('hi')")
	adminToken := getToken(t, admin)

	gradedOK := marchallObj(t, SuccessResponse{Success: "submission graded"})
	tests := []httpTest{
		{
			name: "Auth required", path: fmt.Sprintf("/admin/submissions/%d", sub.ID),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", path: fmt.Sprintf("/admin/submissions/%d", sub.ID), token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", path: fmt.Sprintf("/admin/submissions/%d", sub.ID), token: adminToken,
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"grade": "this field is required"}),
		},
		{
			name: "unknown ID", path: "/admin/submissions/1999", token: adminToken,
			body:     marchallObj(t, submission.GradeSubmission{Grade: "A"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "submission not found"}),
		},
		{
			name: "grade OK", path: fmt.Sprintf("/admin/submissions/%d", sub.ID), token: adminToken,
			body:     marchallObj(t, submission.GradeSubmission{Grade: "A"}),
			wantCode: http.StatusOK, wantData: gradedOK,
		},
		{
			name: "regrade: last writer wins", path: fmt.Sprintf("/admin/submissions/%d", sub.ID), token: adminToken,
			body:     marchallObj(t, submission.GradeSubmission{Grade: "B+"}),
			wantCode: http.StatusOK, wantData: gradedOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPatch

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	refreshed, err := subRepo.GetSubmissionByID(sub.ID)
	if err != nil {
		t.Fatalf("GetSubmissionByID() failed: %v", err)
	}
	if !refreshed.Graded {
		t.Error("failed! submission is not flagged graded")
	}
	if refreshed.Grade.String != "B+" {
		t.Errorf("failed! grade = %q; want %q", refreshed.Grade.String, "B+")
	}
}

func Test_submissionApi_instructorScope(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "teach", "", user.RoleInstructor, "CS101")
	student := testutil.CreateUser(t, usrRepo, "hero", "", user.RoleStudent, "CS101")
	_ = testutil.CreateUser(t, usrRepo, "lazy", "", user.RoleStudent, "CS101") // never submits
	mlStudent := testutil.CreateUser(t, usrRepo, "nerd", "", user.RoleStudent, "ML500")
	asg1 := testutil.CreateAssignment(t, asgRepo, "HW1", "CS101")
	asg2 := testutil.CreateAssignment(t, asgRepo, "HW2", "CS101")
	mlAsg := testutil.CreateAssignment(t, asgRepo, "Lab1", "ML500")
	sub1 := testutil.CreateSubmission(t, subRepo, asg1, student, "print('hi')")
	sub2 := testutil.CreateSubmission(t, subRepo, asg2, student, "print('bye')")
	mlSub := testutil.CreateSubmission(t, subRepo, mlAsg, mlStudent, "fit()")
	instructorToken := getToken(t, instructor)

	tests := []httpTest{
		{
			name: "own course submissions only", method: http.MethodGet, path: "/instructor/submissions",
			token:    instructorToken,
			wantCode: http.StatusOK, wantData: marchallList(t, annotate(sub1, student, asg1), annotate(sub2, student, asg2)),
		},
		{
			name: "narrowed to one assignment", method: http.MethodGet,
			path: fmt.Sprintf("/instructor/submissions?assignmentId=%d", asg2.ID), token: instructorToken,
			wantCode: http.StatusOK, wantData: marchallList(t, annotate(sub2, student, asg2)),
		},
		{
			name: "cross-course grading denied", method: http.MethodPatch,
			path: fmt.Sprintf("/instructor/grade/%d", mlSub.ID), token: instructorToken,
			body:     marchallObj(t, submission.GradeSubmission{Grade: "A"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "grade own course", method: http.MethodPatch,
			path: fmt.Sprintf("/instructor/grade/%d", sub1.ID), token: instructorToken,
			body:     marchallObj(t, submission.GradeSubmission{Grade: "A"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "submission graded"}),
		},
		{
			name: "per-student status", method: http.MethodGet,
			path: fmt.Sprintf("/instructor/assignments/%d/status", asg1.ID), token: instructorToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t,
				submission.StudentStatus{Username: "hero", Submitted: true},
				submission.StudentStatus{Username: "lazy", Submitted: false},
				submission.StudentStatus{Username: "nerd", Submitted: false},
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// The full course run: the admin posts an assignment, a student hands in
// code, the instructor grades it, the student reads the grade.
func Test_submissionApi_endToEnd(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "boss", "", user.RoleAdmin, "")
	instructor := testutil.CreateUser(t, usrRepo, "teach", "", user.RoleInstructor, "CS101")
	student := testutil.CreateUser(t, usrRepo, "hero", "", user.RoleStudent, "CS101")

	do := func(method, path, token string, body []byte, wantCode int) []byte {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s failed! code = %v; want %v: %s", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return rec.Body.Bytes()
	}

	// the admin posts HW1 for CS101
	var asg assignment.Assignment
	body := do(http.MethodPost, "/admin/assignments", getToken(t, admin),
		marchallObj(t, assignment.NewAssignment{Title: "HW1", Course: "CS101"}), http.StatusCreated)
	if err := json.Unmarshal(body, &asg); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}

	// the student sees it and hands in code
	var asgs []assignment.Assignment
	body = do(http.MethodGet, "/dashboard/assignments", getToken(t, student), nil, http.StatusOK)
	if err := json.Unmarshal(body, &asgs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(asgs) != 1 || asgs[0].ID != asg.ID {
		t.Fatalf("failed! student does not see the new assignment: %s", body)
	}

	var sub submission.Submission
	body = do(http.MethodPost, "/dashboard/submit", getToken(t, student),
		marchallObj(t, submission.NewSubmission{AssignmentID: asg.ID, Code: "print('hello')"}), http.StatusCreated)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}

	// the instructor finds it ungraded and grades it
	var subs []submission.Submission
	body = do(http.MethodGet, "/instructor/submissions", getToken(t, instructor), nil, http.StatusOK)
	if err := json.Unmarshal(body, &subs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(subs) != 1 || subs[0].ID != sub.ID || subs[0].Graded {
		t.Fatalf("failed! instructor does not see the ungraded submission: %s", body)
	}

	do(http.MethodPatch, fmt.Sprintf("/instructor/grade/%d", sub.ID), getToken(t, instructor),
		marchallObj(t, submission.GradeSubmission{Grade: "A"}), http.StatusOK)

	// the student reads the grade
	body = do(http.MethodGet, "/dashboard/submissions", getToken(t, student), nil, http.StatusOK)
	if err := json.Unmarshal(body, &subs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(subs) != 1 || !subs[0].Graded || subs[0].Grade.String != "A" {
		t.Fatalf("failed! student does not see the grade: %s", body)
	}
}
