package service

import (
	"errors"
	"testing"

	"github.com/verso-store/internal/config"
)

func TestCaptchaDisabledPasses(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{})
	if err := svc.Verify(CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled captcha should pass, got %v", err)
	}
	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaUnavailable) {
		t.Fatalf("want ErrCaptchaUnavailable got %v", err)
	}
}

func TestCaptchaImageChallengeIsSingleUse(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Enabled: true, Length: 4, Width: 120, Height: 40, ExpireSeconds: 60})
	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate captcha failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" || challenge.ExpiresIn != 60 {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}

	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("missing code want ErrCaptchaRequired got %v", err)
	}

	answer := svc.imageStore().Get(challenge.CaptchaID, false)
	if len(answer) != 4 {
		t.Fatalf("answer length want 4 got %d", len(answer))
	}
	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("reused captcha want ErrCaptchaInvalid got %v", err)
	}
}
