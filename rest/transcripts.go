package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ukane-philemon/transcripts/internal/db"
	"github.com/ukane-philemon/transcripts/internal/transcript"
)

type addStudentRequest struct {
	StudentName string                    `json:"studentName"`
	Grades      []*transcript.CourseGrade `json:"grades,omitempty"`
}

// addGradeRequest repeats the path parameters. When present they must agree
// with the path.
type addGradeRequest struct {
	StudentID    *transcript.StudentID `json:"studentID,omitempty"`
	CourseNumber *transcript.Course    `json:"courseNumber,omitempty"`
	CourseGrade  *float64              `json:"courseGrade"`
}

// getAll handles GET /transcripts.
func (h *Handler) getAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.db.Students())
}

// getTranscript handles GET /transcripts/{studentID}.
func (h *Handler) getTranscript(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	grades, err := h.db.Transcript(studentID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, grades)
}

// addStudent handles POST /transcripts and responds with the new student ID.
func (h *Handler) addStudent(w http.ResponseWriter, r *http.Request) {
	var body addStudentRequest
	if err := readJSON(w, r, &body); err != nil {
		h.handleError(w, r, err)
		return
	}

	studentID, err := h.db.AddStudent(r.Context(), body.StudentName, body.Grades)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/transcripts/"+strconv.FormatInt(int64(studentID), 10))
	writeJSON(w, http.StatusCreated, studentID)
}

// deleteStudent handles DELETE /transcripts/{studentID}.
func (h *Handler) deleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.db.DeleteStudent(r.Context(), studentID); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// addGrade handles POST /transcripts/{studentID}/{courseNumber}.
func (h *Handler) addGrade(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	course, err := courseParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var body addGradeRequest
	if err := readJSON(w, r, &body); err != nil {
		h.handleError(w, r, err)
		return
	}

	switch {
	case body.CourseGrade == nil:
		err = fmt.Errorf("%w: missing courseGrade", db.ErrorInvalidInput)
	case body.StudentID != nil && *body.StudentID != studentID:
		err = fmt.Errorf("%w: studentID %d in body does not match path studentID %d", db.ErrorInvalidInput, *body.StudentID, studentID)
	case body.CourseNumber != nil && *body.CourseNumber != course:
		err = fmt.Errorf("%w: courseNumber %q in body does not match path courseNumber %q", db.ErrorInvalidInput, *body.CourseNumber, course)
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.db.AddGrade(r.Context(), studentID, course, *body.CourseGrade); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getGrade handles GET /transcripts/{studentID}/{courseNumber}.
func (h *Handler) getGrade(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	course, err := courseParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	grade, err := h.db.Grade(studentID, course)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, grade)
}

// classReport handles GET /reports.
func (h *Handler) classReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, transcript.BuildClassReport(h.db.Students(), h.db.Bounds()))
}

// studentReport handles GET /reports/{studentID}. The position is taken from
// the class report so it agrees with GET /reports.
func (h *Handler) studentReport(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if _, err := h.db.Student(studentID); err != nil {
		h.handleError(w, r, err)
		return
	}

	classReport := transcript.BuildClassReport(h.db.Students(), h.db.Bounds())
	for _, report := range classReport.Students {
		if report.StudentID == studentID {
			writeJSON(w, http.StatusOK, report)
			return
		}
	}

	// Deleted between the two reads.
	h.handleError(w, r, fmt.Errorf("%w: no record found for student with ID %d", db.ErrorNotFound, studentID))
}
