package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/mpapenbr/f1telemetry-service-go/log"
)

func WaitForTCP(addr string, timeout time.Duration) error {
	timeoutReached := time.Now().Add(timeout)
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for time.Now().Before(timeoutReached) {
		conn, err := d.DialContext(context.Background(), "tcp", addr)
		if err == nil {
			conn.Close()

			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("%s could not be reached after %v", addr, timeout)
}

// ExtractFromDBURL returns host:port of a postgres connection url.
func ExtractFromDBURL(url string) string {
	param := resolveRegex(
		"^postgres(ql)?://(.*@)?(?P<addr>(?P<host>[^/:]*?)(:(?P<port>\\d+))?)(/.*)?$", url)
	return hostPort(param, "5432")
}

// ExtractFromNatsURL returns host:port of the first server of a nats url.
func ExtractFromNatsURL(url string) string {
	first, _, _ := strings.Cut(url, ",")
	param := resolveRegex(
		"^(nats|tls)://(.*@)?(?P<addr>(?P<host>[^/:]*?)(:(?P<port>\\d+))?)/?$", first)
	return hostPort(param, "4222")
}

func hostPort(param map[string]string, defaultPort string) string {
	if len(param) == 0 || param["host"] == "" {
		return ""
	}
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"] // if port is found, the addr contains our wanted value
	}
	return fmt.Sprintf("%s:%s", param["addr"], defaultPort)
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)
	if match == nil {
		return nil
	}

	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && i < len(match) && name != "" {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
