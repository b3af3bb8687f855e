//go:build !whisper_gpu

package transcribe

const gpuBuild = false
