package webhook

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

// Svix形式のWebhookヘッダー名。
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// DefaultTolerance は許容する送信時刻と現在時刻の差。
const DefaultTolerance = 300 * time.Second

// Oracle は署名の再計算と比較を行う外部検証器。
// 不一致の場合はエラーを返す。
type Oracle interface {
	Verify(payload []byte, headers http.Header) error
}

// svixOracle はsvixライブラリによる署名検証を行う。
// 鮮度チェックはVerifier側で行うため、ここではタイムスタンプを検査しない。
type svixOracle struct {
	wh *svix.Webhook
}

// NewSvixOracle はwhsec_形式のシークレットからOracleを生成する。
func NewSvixOracle(secret string) (Oracle, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return &svixOracle{wh: wh}, nil
}

func (o *svixOracle) Verify(payload []byte, headers http.Header) error {
	return o.wh.VerifyIgnoringTimestamp(payload, headers)
}

// VerifierConfig はVerifierの生成パラメータ。
type VerifierConfig struct {
	Secret      string
	Development bool
	// Toleranceが0以下またはDefaultToleranceを超える場合はDefaultToleranceを使用する。
	Tolerance time.Duration
	// Oracleがnilの場合はSecretからsvixのOracleを生成する。
	Oracle Oracle
	Logger *slog.Logger
	Now    func() time.Time
}

// Verifier はWebhookの真正性と鮮度を検証する。
type Verifier struct {
	secret      string
	development bool
	tolerance   time.Duration
	oracle      Oracle
	logger      *slog.Logger
	now         func() time.Time
}

// NewVerifier はVerifierを生成する。
// シークレットが不正な形式の場合はConfigurationErrorを返す。
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	v := &Verifier{
		secret:      cfg.Secret,
		development: cfg.Development,
		tolerance:   cfg.Tolerance,
		oracle:      cfg.Oracle,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if v.tolerance <= 0 || v.tolerance > DefaultTolerance {
		v.tolerance = DefaultTolerance
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	if v.now == nil {
		v.now = time.Now
	}
	if v.oracle == nil && v.secret != "" {
		oracle, err := NewSvixOracle(v.secret)
		if err != nil {
			return nil, newError(KindConfiguration, "invalid webhook secret", nil, err)
		}
		v.oracle = oracle
	}
	return v, nil
}

// Verify はペイロードとヘッダーを検証する。
// 検証結果は種別付きの*Errorで返す。
func (v *Verifier) Verify(payload []byte, headers http.Header) error {
	v.logger.Debug("webhook署名の検証を開始します", slog.Int("payload_bytes", len(payload)))

	if v.secret == "" {
		if v.development {
			v.logger.Warn("webhookシークレットが未設定のため署名検証をスキップします（開発モード）")
			return nil
		}
		v.logger.Error("webhookシークレットが設定されていません")
		return NewConfigurationError("webhook secret is not configured")
	}

	id := headers.Get(HeaderID)
	ts := headers.Get(HeaderTimestamp)
	sig := headers.Get(HeaderSignature)

	var missing []string
	if sig == "" {
		missing = append(missing, HeaderSignature)
	}
	if ts == "" {
		missing = append(missing, HeaderTimestamp)
	}
	if id == "" {
		missing = append(missing, HeaderID)
	}
	if len(missing) > 0 {
		v.logger.Warn("webhookヘッダーが不足しています", slog.Any("missing_headers", missing))
		return NewSignatureError("missing required headers", map[string]any{"missing_headers": missing}, nil)
	}

	v.logger.Debug("webhookヘッダーを取得しました", slog.String("svix_id", id), slog.String("svix_timestamp", ts))

	sent, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		v.logger.Warn("webhookタイムスタンプの形式が不正です", slog.String("svix_timestamp", ts))
		return NewTimestampError("invalid timestamp format", map[string]any{"timestamp": ts})
	}

	drift := absDiff(v.now().Unix(), sent)
	toleranceSeconds := int64(v.tolerance / time.Second)
	if drift > toleranceSeconds {
		v.logger.Warn("webhookタイムスタンプが許容範囲外です",
			slog.Int64("drift_seconds", drift),
			slog.Int64("tolerance_seconds", toleranceSeconds),
		)
		return NewTimestampError("timestamp outside tolerance window", map[string]any{
			"drift_seconds":     drift,
			"tolerance_seconds": toleranceSeconds,
		})
	}

	if err := v.oracle.Verify(payload, headers); err != nil {
		v.logger.Warn("webhook署名が一致しません", slog.String("svix_id", id), slog.String("error", err.Error()))
		return NewSignatureError("invalid signature", map[string]any{"svix_id": id}, err)
	}

	v.logger.Info("webhook署名の検証に成功しました", slog.String("svix_id", id))
	return nil
}

// absDiff は|a-b|を返す。int64に収まらない場合はmath.MaxInt64に飽和させる。
func absDiff(a, b int64) int64 {
	if a < b {
		a, b = b, a
	}
	d := a - b
	if d < 0 {
		return math.MaxInt64
	}
	return d
}
