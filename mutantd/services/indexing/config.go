package indexing

import "fmt"

const defaultMaxValueLen = 1024

type config struct {
	Redis       []string `json:"redis"`
	MaxValueLen int      `json:"maxValueLen"`
}

func (cfg *config) parse() (err error) {
	if len(cfg.Redis) == 0 {
		return fmt.Errorf("require redis configuration")
	}
	if cfg.MaxValueLen <= 0 {
		cfg.MaxValueLen = defaultMaxValueLen
	}
	return
}
