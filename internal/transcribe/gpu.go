//go:build whisper_gpu

package transcribe

// gpuBuild is set when whisper.cpp is linked against a GPU backend
// (CUDA, Metal, Vulkan). Build with -tags whisper_gpu in that case.
const gpuBuild = true
