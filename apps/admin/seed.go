package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/course"
	"github.com/trezcool/tarpaulin/core/user"
)

var errAlreadySeeded = errors.New("database already seeded")

var seedUsers = []user.NewUser{
	{Name: "Jane Doe Admin", Email: "doejadm@oregonstate.edu", Role: user.RoleAdmin},
	{Name: "Jane Doe Instructor", Email: "doejins@oregonstate.edu", Role: user.RoleInstructor},
	{Name: "Jane Doe Student", Email: "doejstu@oregonstate.edu", Role: user.RoleStudent},
	{Name: "Another Student", Email: "studastu@oregonstate.edu", Role: user.RoleStudent},
}

// seed loads the sample data set, all users sharing `pwd`. It refuses to run twice.
func (cli *commandLine) seed(ctx context.Context, pwd string) error {
	_, err := cli.usrSvc.GetByEmail(ctx, seedUsers[0].Email)
	switch {
	case err == nil:
		return errAlreadySeeded
	case !errors.Is(err, user.ErrNotFound):
		return err
	}

	usrs := make([]user.User, 0, len(seedUsers))
	for _, nu := range seedUsers {
		nu.Password = pwd
		usr, err := cli.usrSvc.Create(ctx, nu)
		if err != nil {
			return pkgerrors.Wrapf(err, "creating %s", nu.Email)
		}
		usrs = append(usrs, usr)
	}
	instructor, students := usrs[1], usrs[2:]

	crs, err := cli.crsSvc.Create(ctx, course.NewCourse{
		Subject:      "CS",
		Number:       493,
		Title:        "Cloud Application Development",
		Term:         "sp19",
		InstructorID: instructor.ID,
	})
	if err != nil {
		return pkgerrors.Wrap(err, "creating course")
	}
	roster := course.RosterUpdate{Add: make([]string, 0, len(students))}
	for _, stu := range students {
		roster.Add = append(roster.Add, stu.ID)
	}
	if err = cli.crsSvc.UpdateRoster(ctx, crs, roster); err != nil {
		return pkgerrors.Wrap(err, "enrolling students")
	}

	due, err := time.Parse(time.RFC3339, "2019-06-14T17:00:00-07:00")
	if err != nil {
		return err
	}
	asg, err := cli.asgSvc.Create(ctx, assignment.NewAssignment{
		CourseID: crs.ID,
		Title:    "CS 493 Assignment 1",
		Points:   100,
		Due:      due,
	})
	if err != nil {
		return pkgerrors.Wrap(err, "creating assignment")
	}

	fmt.Printf("seeded %d users, course %s and assignment %s\n", len(usrs), crs.ID, asg.ID)
	return nil
}
