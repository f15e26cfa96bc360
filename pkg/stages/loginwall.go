package stages

import (
	"context"
	"net/url"
	"regexp"

	"github.com/dtnitsch/readembed/pkg/analytics"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
)

var signInPath = regexp.MustCompile(`(?i)/(log-?in|sign-?in|sign_in|auth|sso|account/login)(/|$|\?)`)

// loginWallWords is the most text a page can carry and still be treated
// as nothing but a sign-in form.
const loginWallWords = 150

type loginWall struct{ base }

// LoginWall fails the run when the request landed on a sign-in page.
func LoginWall(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return loginWall{base{"login_wall", p}}
}

func (s loginWall) Enrich(_ context.Context, res *result.Result) error {
	if s.redirectedToSignIn() || s.passwordFormOnly() {
		s.page.Logger.Info("Login wall detected", "final_url", s.page.Href())
		res.Set("success", false, result.Certain)
	}
	return nil
}

func (s loginWall) redirectedToSignIn() bool {
	if s.page.URL == nil || !signInPath.MatchString(s.page.URL.Path) {
		return false
	}
	req, err := url.Parse(s.page.RequestURL)
	return err == nil && !signInPath.MatchString(req.Path)
}

func (s loginWall) passwordFormOnly() bool {
	if s.page.Doc.Find(`input[type="password"]`).Length() == 0 {
		return false
	}
	return len(analytics.Words(s.page.Doc.AllText())) < loginWallWords
}
