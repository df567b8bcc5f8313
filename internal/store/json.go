package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visitor-intel/internal/model"
)

func marshalSocial(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func unmarshalSocial(b []byte, c *model.Company) error {
	if len(b) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return eris.Wrap(err, "unmarshal social profiles")
	}
	if len(m) > 0 {
		c.SocialProfiles = m
	}
	return nil
}
