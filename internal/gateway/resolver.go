package gateway

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ChainResolver опрашивает резолверы по очереди до первого успеха.
type ChainResolver struct {
	resolvers []Resolver
	log       logrus.FieldLogger
}

func NewChainResolver(log logrus.FieldLogger, resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers, log: log}
}

func (c *ChainResolver) Resolve(ctx context.Context, handle string) (int64, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	for i, r := range c.resolvers {
		if r == nil {
			continue
		}
		id, err := r.Resolve(ctx, handle)
		if err == nil && id > 0 {
			return id, nil
		}
		if err != nil && !errors.Is(err, ErrUnresolved) && c.log != nil {
			c.log.WithFields(logrus.Fields{"handle": handle, "resolver": i}).WithError(err).Debug("resolver failed")
		}
	}
	return 0, ErrUnresolved
}

// CommandResolver запускает внешний процесс: "<command...> <handle>".
// Процесс печатает числовой id в stdout и завершается с кодом 0.
type CommandResolver struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommandResolver разбирает строку команды, например "python utils/get_telegram_id.py".
// Пустая команда даёт nil.
func NewCommandResolver(command string, timeout time.Duration) *CommandResolver {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CommandResolver{name: fields[0], args: fields[1:], timeout: timeout}
}

func (r *CommandResolver) Resolve(ctx context.Context, handle string) (int64, error) {
	if r == nil {
		return 0, ErrUnresolved
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(append([]string{}, r.args...), handle)
	out, err := exec.CommandContext(ctx, r.name, args...).Output()
	if err != nil {
		return 0, fmt.Errorf("command resolver: %w", err)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrUnresolved
	}
	return id, nil
}
