package entrypoints

import (
	"strings"

	"github.com/voyantlabs/codegraph/internal/lang"
)

// Framework names used in candidates and entry points.
const (
	FrameworkFlask   = "flask"
	FrameworkFastAPI = "fastapi"
	FrameworkDjango  = "django"
	FrameworkCelery  = "celery"
	FrameworkKafka   = "kafka"
	FrameworkSpring  = "spring"
	FrameworkJAXRS   = "jax-rs"
	FrameworkGRPC    = "grpc"
	FrameworkKtor    = "ktor"
	FrameworkCamel   = "camel"
	FrameworkExpress = "express"
	FrameworkNextJS  = "nextjs"
	FrameworkLambda  = "aws-lambda"
	FrameworkActix   = "actix"
	FrameworkRocket  = "rocket"
	FrameworkRabbit  = "rabbitmq"
)

// frameworkImports maps a framework to the import fragments that reveal it in
// a file, per language. A file only runs the candidate patterns of frameworks
// its imports name.
var frameworkImports = map[lang.Language]map[string][]string{
	lang.Python: {
		FrameworkFlask:   {"from flask", "import flask"},
		FrameworkFastAPI: {"from fastapi", "import fastapi"},
		FrameworkDjango:  {"from django", "import django"},
		FrameworkCelery:  {"from celery", "import celery"},
		FrameworkKafka:   {"from kafka", "import kafka", "from confluent_kafka", "import confluent_kafka"},
		FrameworkGRPC:    {"import grpc", "from grpc"},
		FrameworkLambda:  {"import boto3", "from aws_lambda", "import aws_lambda"},
	},
	lang.Java: {
		FrameworkSpring: {"org.springframework"},
		FrameworkJAXRS:  {"javax.ws.rs", "jakarta.ws.rs"},
		FrameworkGRPC:   {"io.grpc"},
		FrameworkKafka:  {"org.apache.kafka", "org.springframework.kafka"},
		FrameworkCamel:  {"org.apache.camel"},
		FrameworkRabbit: {"org.springframework.amqp", "com.rabbitmq"},
	},
	lang.Kotlin: {
		FrameworkSpring: {"org.springframework"},
		FrameworkKtor:   {"io.ktor"},
		FrameworkGRPC:   {"io.grpc"},
		FrameworkKafka:  {"org.apache.kafka", "org.springframework.kafka"},
		FrameworkCamel:  {"org.apache.camel"},
	},
	lang.JavaScript: {
		FrameworkExpress: {"require('express')", `require("express")`, "from 'express'", `from "express"`},
		FrameworkLambda:  {"aws-sdk", "@aws-sdk/"},
	},
	lang.TypeScript: {
		FrameworkExpress: {"from 'express'", `from "express"`, "require('express')", `require("express")`},
		FrameworkNextJS:  {"from 'next", `from "next`},
		FrameworkLambda:  {"aws-lambda", "@aws-sdk/"},
	},
	lang.TSX: {
		FrameworkNextJS: {"from 'next", `from "next`},
	},
	lang.Rust: {
		FrameworkActix:  {"actix_web"},
		FrameworkRocket: {"rocket"},
	},
}

// DetectFrameworks returns the frameworks a file's imports reveal, plus
// path-derived ones (Next.js API routes are located by convention, not
// import).
func DetectFrameworks(language lang.Language, relPath, content string) []string {
	var found []string
	seen := map[string]bool{}
	add := func(fw string) {
		if !seen[fw] {
			seen[fw] = true
			found = append(found, fw)
		}
	}

	for fw, fragments := range frameworkImports[language] {
		for _, frag := range fragments {
			if strings.Contains(content, frag) {
				add(fw)
				break
			}
		}
	}

	slashPath := strings.ToLower(relPath)
	if strings.Contains(slashPath, "pages/api/") || strings.Contains(slashPath, "app/api/") {
		add(FrameworkNextJS)
	}
	// Bare lambda handlers need no import at all.
	if language == lang.Python && strings.Contains(content, "lambda_handler") {
		add(FrameworkLambda)
	}
	return found
}

// testPathMarkers excludes test code from entry-point detection. A test that
// calls a route handler is not an external trigger.
var testPathMarkers = []string{
	"/test/", "/tests/", "/__tests__/", "/testdata/", "/spec/",
	"_test.", ".test.", ".spec.", "/test_",
}

// IsTestPath reports whether a relative path looks like test code.
func IsTestPath(relPath string) bool {
	p := strings.ToLower("/" + strings.TrimPrefix(relPath, "/"))
	for _, marker := range testPathMarkers {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}
