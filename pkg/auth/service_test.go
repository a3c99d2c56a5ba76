package auth

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	apierr "github.com/theapemachine/recall/pkg/errors"
)

func TestIssueTokens(t *testing.T) {
	Convey("Given an auth service", t, func() {
		svc := NewService("test-signing-key")
		pair, err := svc.IssueTokens("owner-1")

		Convey("Then a token pair is returned", func() {
			So(err, ShouldBeNil)
			So(pair.Token, ShouldNotBeEmpty)
			So(pair.RefreshToken, ShouldNotBeEmpty)
			So(pair.ExpiresAt.After(time.Now()), ShouldBeTrue)
		})
	})
}

func TestAuthenticate(t *testing.T) {
	Convey("Given an issued bearer token", t, func() {
		svc := NewService("test-signing-key")
		pair, _ := svc.IssueTokens("owner-1")

		ownerID, err := svc.Authenticate("Bearer " + pair.Token)

		Convey("Then it resolves to the owner", func() {
			So(err, ShouldBeNil)
			So(ownerID, ShouldEqual, "owner-1")
		})
	})

	Convey("Given a missing header", t, func() {
		svc := NewService("test-signing-key")
		_, err := svc.Authenticate("")

		Convey("Then authentication fails", func() {
			So(errors.Is(err, apierr.ErrUnauthorized), ShouldBeTrue)
		})
	})

	Convey("Given a token signed with another key", t, func() {
		other := NewService("different-key")
		pair, _ := other.IssueTokens("owner-1")

		svc := NewService("test-signing-key")
		_, err := svc.Authenticate("Bearer " + pair.Token)

		Convey("Then authentication fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestAuthenticateAPIKey(t *testing.T) {
	Convey("Given a configured API key", t, func() {
		svc := NewService(
			"test-signing-key",
			WithAPIKeys(map[string]string{"ext-key-abc": "owner-2"}),
		)

		ownerID, err := svc.Authenticate("Bearer ext-key-abc")

		Convey("Then it resolves to the key's owner", func() {
			So(err, ShouldBeNil)
			So(ownerID, ShouldEqual, "owner-2")
		})
	})
}

func TestRefresh(t *testing.T) {
	Convey("Given a valid refresh token", t, func() {
		svc := NewService("test-signing-key")
		pair, _ := svc.IssueTokens("owner-1")

		next, err := svc.Refresh(pair.RefreshToken)

		Convey("Then a new pair is issued", func() {
			So(err, ShouldBeNil)
			So(next.Token, ShouldNotBeEmpty)
		})

		Convey("And the refresh token is single-use", func() {
			_, err := svc.Refresh(pair.RefreshToken)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given an unknown refresh token", t, func() {
		svc := NewService("test-signing-key")
		_, err := svc.Refresh("bogus")

		Convey("Then refresh fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
