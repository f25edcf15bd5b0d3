package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/mpapenbr/lapracer/log"
)

const defaultNatsPort = "4222"

// WaitForTCP retries connecting to addr until it succeeds, ctx is done or
// the timeout is reached.
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v", addr, timeout)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// ExtractFromNatsURL returns host:port of the first server in a NATS url list
// such as "nats://user:pw@host:4222,nats://other:4222". Empty if url is not
// a NATS url.
func ExtractFromNatsURL(url string) string {
	first, _, _ := strings.Cut(url, ",")
	param := resolveRegex(
		"^(nats|tls)://([^@/]*@)?(?P<host>[^:/]+)(:(?P<port>\\d+))?/?$", first)
	if param["host"] == "" {
		return ""
	}
	port := param["port"]
	if port == "" {
		port = defaultNatsPort
	}
	return net.JoinHostPort(param["host"], port)
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)

	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && i < len(match) {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
