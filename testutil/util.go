package testutil

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/course"
	"github.com/trezcool/tarpaulin/core/submission"
	"github.com/trezcool/tarpaulin/core/user"
)

func CreateUser(t *testing.T, repo user.Repository, name, email, pwd, role string) user.User {
	usr := user.User{
		Name:  name,
		Email: email,
		Role:  role,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	subject string,
	number int,
	title, term, instructorID string,
	enrolled ...string,
) course.Course {
	ctx := context.Background()
	crs, err := repo.CreateCourse(ctx, course.Course{
		Subject:      subject,
		Number:       number,
		Title:        title,
		Term:         term,
		InstructorID: instructorID,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	if len(enrolled) > 0 {
		if err = repo.UpdateRoster(ctx, crs.ID, enrolled, nil); err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
		crs.Enrolled = enrolled
	}
	return crs
}

func CreateAssignment(t *testing.T, repo assignment.Repository, courseID, title string, points int, due time.Time) assignment.Assignment {
	asg, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		CourseID: courseID,
		Title:    title,
		Points:   points,
		Due:      due.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

// CreateSubmission stores `content` as a submission of `assignmentID` by `studentID`, with its url set.
func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	assignmentID, studentID, filename, contentType string,
	content []byte,
	timestamp time.Time,
) submission.Submission {
	ctx := context.Background()
	id, err := repo.UploadSubmission(ctx, filename, bytes.NewReader(content), submission.Metadata{
		ContentType:  contentType,
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Timestamp:    timestamp.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	if err = repo.SetSubmissionURL(ctx, id, submission.MediaURL(id)); err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	sub, err := repo.GetSubmissionByID(ctx, id)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
