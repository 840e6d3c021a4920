package build

import (
	"fmt"
	"net/url"
	"strings"
)

// SCM points at the source revision a build was produced from.
type SCM struct {
	URL      string `json:"url"`
	Branch   string `json:"branch"`
	Revision string `json:"revision"`
}

// Facts describes one finished build. It is constructed per notification and
// treated as read-only by the pipeline.
type Facts struct {
	ProjectID    string `json:"projectId"`
	FullName     string `json:"fullName"`
	BuildNumber  string `json:"buildNumber"`
	StatusText   string `json:"statusText"`
	Success      bool   `json:"success"`
	SCM          *SCM   `json:"scm,omitempty"`
	RootURL      string `json:"rootUrl"`
	BuildTypeID  string `json:"buildTypeId"`
	BuildID      int64  `json:"buildId"`
	ArtifactsDir string `json:"artifactsDir,omitempty"`
}

// Label renders "<name> #<number>" for log lines.
func (f Facts) Label() string {
	return fmt.Sprintf("%s #%s", f.FullName, f.BuildNumber)
}

// FailureMessage returns the raw status text for failed builds and "" otherwise.
func (f Facts) FailureMessage() string {
	if f.Success {
		return ""
	}
	return f.StatusText
}

func (f Facts) root() string {
	return strings.TrimRight(strings.TrimSpace(f.RootURL), "/")
}

// LogURL addresses the build's log view, e.g.
// http://root/viewLog.html?buildTypeId=Demo_Build&buildId=90
func LogURL(f Facts) string {
	return fmt.Sprintf("%s/viewLog.html?buildTypeId=%s&buildId=%d",
		f.root(), url.QueryEscape(f.BuildTypeID), f.BuildID)
}

// ArtifactsTabURL addresses the artifacts tab of the build's log view.
func ArtifactsTabURL(f Facts) string {
	return LogURL(f) + "&tab=artifacts"
}

// ArtifactDownloadURL addresses an archived artifact, e.g.
// http://root/repository/download/Demo_Build/7/app.jar
func ArtifactDownloadURL(f Facts, name string) string {
	return fmt.Sprintf("%s/repository/download/%s/%s/%s",
		f.root(), url.PathEscape(f.BuildTypeID), url.PathEscape(f.BuildNumber), url.PathEscape(name))
}

// RemotePrefix is the object-storage key prefix artifacts of this build are
// uploaded under: the full name with " :: " collapsed to "::", then the number.
func RemotePrefix(f Facts) string {
	return strings.ReplaceAll(f.FullName, " :: ", "::") + "/" + f.BuildNumber
}

// NormalizeBranch rewrites a fully-qualified branch ref to its remote-tracking form.
func NormalizeBranch(branch string) string {
	branch = strings.TrimSpace(branch)
	if rest, ok := strings.CutPrefix(branch, "refs/heads/"); ok {
		return "origin/" + rest
	}
	return branch
}
