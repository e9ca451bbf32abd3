package api

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

var errNoProviderConfigured = errors.New("no publishing provider configured")
var errNoPublishedRuleSet = errors.New("no published ruleset is available to analyze against")
var errPublishTaskNotRetryable = errors.New("only a failed publish task can be retried")

func errStatusForbidsPublish(status models.ArticleStatus) error {
	return fmt.Errorf("article status %q does not permit publishing", status)
}
